package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

// ErrUnknownProfile is returned when a model config names an unknown profile.
var ErrUnknownProfile = errors.New("profile: unknown device profile")

// Registry maps model names to model configs.
//
// Lookups are case-insensitive: an exact model match wins, otherwise the
// longest registered prefix of the model is used.
//
// All public methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	models map[string][]ModelConfig
	logger homematic.Logger
}

// NewRegistry creates a registry holding the built-in models.
func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string][]ModelConfig, len(builtinModels)),
		logger: homematic.NopLogger(),
	}
	for model, cfgs := range builtinModels {
		r.models[strings.ToLower(model)] = cfgs
	}
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger homematic.Logger) {
	r.logger = homematic.LoggerOrNop(logger)
}

// Register adds or replaces the configs of model.
func (r *Registry) Register(model string, cfgs ...ModelConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[strings.ToLower(model)] = cfgs
}

// Lookup returns the configs for model, or nil if none apply.
func (r *Registry) Lookup(model string) []ModelConfig {
	key := strings.ToLower(model)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfgs, ok := r.models[key]; ok {
		return cfgs
	}
	best := ""
	for prefix := range r.models {
		if len(prefix) > len(best) && strings.HasPrefix(key, prefix) {
			best = prefix
		}
	}
	if best == "" {
		return nil
	}
	return r.models[best]
}

// Models returns the registered model keys, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models))
	for m := range r.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Build creates the custom entities of d and attaches them to it. Devices
// without a model config get none. Once a config applies, the device's
// generic entities default to NO_CREATE.
func (r *Registry) Build(d *entity.Device) ([]entity.CustomEntity, error) {
	cfgs := r.Lookup(d.Model())
	if len(cfgs) == 0 {
		return nil, nil
	}
	d.MarkCustomDefinition()

	var built []entity.CustomEntity
	for _, cfg := range cfgs {
		def, ok := Lookup(cfg.Profile)
		if !ok {
			return built, fmt.Errorf("%w: %s for model %s", ErrUnknownProfile, cfg.Profile, d.Model())
		}
		for _, base := range cfg.Channels {
			entities, err := r.buildGroup(d, cfg, def, base)
			if err != nil {
				return built, err
			}
			built = append(built, entities...)
		}
	}

	r.logger.Debug("custom entities built",
		"device", d.Address(),
		"model", d.Model(),
		"count", len(built),
	)
	return built, nil
}

type groupChannel struct {
	no    int
	usage homematic.Usage
}

func (r *Registry) buildGroup(d *entity.Device, cfg ModelConfig, def Definition, base int) ([]entity.CustomEntity, error) {
	var out []entity.CustomEntity

	channels := []groupChannel{{base + def.PrimaryChannel, homematic.UsageCEPrimary}}
	for _, sec := range def.SecondaryChannels {
		channels = append(channels, groupChannel{base + sec, homematic.UsageCESecondary})
	}

	for _, ch := range channels {
		if !d.HasChannel(ch.no) {
			continue
		}
		fields := resolveFields(d, cfg, def, base, ch.no)
		if len(fields) == 0 {
			continue
		}
		e, err := newCustomEntity(cfg, entity.CustomConfig{
			Device:    d,
			ChannelNo: ch.no,
			Usage:     ch.usage,
			Fields:    fields,
		})
		if err != nil {
			return out, fmt.Errorf("creating %s entity on %s: %w", cfg.Platform, homematic.ChannelAddress(d.Address(), ch.no), err)
		}
		d.AddCustomEntity(e)
		out = append(out, e)
	}

	if cfg.Extended != nil {
		for no, params := range cfg.Extended.AdditionalEntities {
			markEntities(d, no, params, homematic.UsageEntity)
		}
	}
	return out, nil
}

// resolveFields looks up the generic entities of one custom entity.
func resolveFields(d *entity.Device, cfg ModelConfig, def Definition, base, no int) map[entity.Field]*entity.GenericEntity {
	fields := make(map[entity.Field]*entity.GenericEntity)
	own := homematic.ChannelAddress(d.Address(), no)

	add := func(address string, m Fields, visible bool) {
		for field, param := range m {
			e := d.GenericEntity(address, param)
			if e == nil {
				continue
			}
			if visible {
				e.SetUsage(homematic.UsageCEVisible)
			}
			fields[field] = e
		}
	}

	add(own, def.RepeatableFields, false)
	add(own, def.VisibleRepeatableFields, true)
	if cfg.Extended != nil {
		for fixed, m := range cfg.Extended.FixedChannels {
			add(homematic.ChannelAddress(d.Address(), fixed), m, false)
		}
	}
	for rel, m := range def.Fields {
		add(homematic.ChannelAddress(d.Address(), base+rel), m, false)
	}
	for rel, m := range def.VisibleFields {
		add(homematic.ChannelAddress(d.Address(), base+rel), m, true)
	}
	return fields
}

func markEntities(d *entity.Device, no int, params []string, usage homematic.Usage) {
	address := homematic.ChannelAddress(d.Address(), no)
	for _, p := range params {
		if e := d.GenericEntity(address, p); e != nil {
			e.SetUsage(usage)
		}
	}
}

func newCustomEntity(cfg ModelConfig, cc entity.CustomConfig) (entity.CustomEntity, error) {
	switch cfg.Platform {
	case entity.PlatformSwitch:
		s, err := entity.NewSwitch(cc)
		if err != nil {
			return nil, err
		}
		return s, nil
	case entity.PlatformLight:
		l, err := entity.NewLight(cfg.Kind, cc)
		if err != nil {
			return nil, err
		}
		return l, nil
	case entity.PlatformCover:
		if cfg.Profile == IPGarage {
			g, err := entity.NewGarage(cc)
			if err != nil {
				return nil, err
			}
			return g, nil
		}
		c, err := entity.NewCover(cfg.CoverKind, cc)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
}
