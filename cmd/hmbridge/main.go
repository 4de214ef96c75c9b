// Gray Logic Homematic Bridge
//
// This is the main entry point of the Homematic bridge. It connects a
// Homematic central (CCU interfaces such as HmIP-RF and BidCos-RF) to the
// Gray Logic MQTT bus:
//   - entity state is published to graylogic/state/homematic/{entity_id}
//   - commands arrive on graylogic/command/homematic/{entity_id}
//   - interface events and bridge health are published alongside
//
// A REST API and WebSocket feed expose the same devices and entities.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-homematic/internal/api"
	"github.com/nerrad567/gray-logic-homematic/internal/bridge"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/central"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/profile"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Homematic bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Homematic central with one client per configured interface
	hm, err := startCentral(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("stopping central")
		hm.Stop()
	}()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// MQTT bridge
	opts := bridge.Options{
		Central:    hm,
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Version:    version,
		Logger:     log.Component("bridge"),
	}
	if influxClient != nil {
		opts.Recorder = influxClient
	}
	hmBridge, err := bridge.New(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := hmBridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		hmBridge.Stop()
	}()
	log.Info("bridge started")

	// REST API and WebSocket (optional)
	if cfg.API.Enabled {
		apiServer, err := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.Component("api"),
			Central:  hm,
			Commands: hmBridge,
			Health:   hmBridge.Health(),
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, bridge, InfluxDB, MQTT, central.

	log.Info("Gray Logic Homematic bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_HM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_HM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startCentral creates the central, adds a local client per interface and
// starts it. The central is stopped again when starting fails.
func startCentral(ctx context.Context, cfg *config.Config, log *logging.Logger) (*central.Central, error) {
	hm, err := central.New(central.Config{
		Name:                    cfg.Central.Name,
		ConnectionCheckInterval: cfg.GetConnectionCheckInterval(),
		Registry:                profile.NewRegistry(),
		Logger:                  log.Component("central"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating central: %w", err)
	}

	for _, iface := range cfg.Central.Interfaces {
		var fixture *client.Fixture
		if iface.Fixture != "" {
			fixture, err = client.LoadFixture(iface.Fixture)
			if err != nil {
				return nil, fmt.Errorf("loading fixture for %s: %w", iface.Interface, err)
			}
		}

		interfaceID := cfg.Central.InterfaceID(iface)
		cl, err := client.NewLocal(client.LocalConfig{
			InterfaceID:          interfaceID,
			Interface:            iface.Interface,
			InstanceName:         cfg.Central.Name,
			Fixture:              fixture,
			DisablePingPong:      !iface.PingPongEnabled(),
			PingPongAllowedDelta: iface.PingPongMismatchCount,
			Sink:                 hm,
			FireEvent:            hm.FireEvent,
			Logger:               log.Component("client").ForInterface(interfaceID),
		})
		if err != nil {
			return nil, fmt.Errorf("creating client %s: %w", interfaceID, err)
		}
		if err := hm.AddClient(cl); err != nil {
			return nil, fmt.Errorf("adding client %s: %w", interfaceID, err)
		}
		log.Info("interface configured",
			"interface_id", interfaceID,
			"fixture", iface.Fixture,
			"ping_pong", iface.PingPongEnabled(),
		)
	}

	if err := hm.Start(ctx); err != nil {
		hm.Stop()
		return nil, fmt.Errorf("starting central: %w", err)
	}
	log.Info("central started",
		"central", hm.Name(),
		"devices", len(hm.Devices()),
		"entities", len(hm.Entities()),
	)
	return hm, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - The bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// Disconnect implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Disconnect(quiesce uint) {
	a.client.Disconnect(quiesce)
}
