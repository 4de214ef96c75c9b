// Package central ties backend clients, devices and caches together.
//
// A Central owns one DeviceDetailsCache and one CentralDataCache shared by
// all of its clients, builds a Device with generic and custom entities for
// every device a client lists, routes backend events to those entities, and
// runs a background connection checker that pings each client.
//
// The typical lifecycle is:
//
//	c, _ := central.New(central.Config{Name: "ccu", Registry: profile.NewRegistry()})
//	local, _ := client.NewLocal(client.LocalConfig{InterfaceID: "ccu-HmIP-RF", Sink: c, FireEvent: c.FireEvent})
//	c.AddClient(local)
//	c.Start(ctx)
//	defer c.Stop()
package central
