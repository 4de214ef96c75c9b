package entity

import (
	"context"
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic"
)

// Sender writes values to the backend.
type Sender interface {
	SetValue(ctx context.Context, channelAddress string, paramsetKey homematic.ParamsetKey, parameter string, value any) error
	PutParamset(ctx context.Context, address string, paramsetKey homematic.ParamsetKey, values map[string]any) error
}

// Collector gathers the parameter writes of one command.
// It is not safe for concurrent use.
type Collector struct {
	sender         Sender
	usePutParamset bool
	paramsets      map[int]map[string]map[string]any
}

// NewCollector creates an empty collector writing through sender.
func NewCollector(sender Sender) *Collector {
	return &Collector{
		sender:         sender,
		usePutParamset: true,
		paramsets:      make(map[int]map[string]map[string]any),
	}
}

// DisablePutParamset makes Send write every value with SetValue.
func (c *Collector) DisablePutParamset() {
	c.usePutParamset = false
}

// Add queues value for e under order. A later value for the same parameter
// in the same order replaces the earlier one.
func (c *Collector) Add(e *GenericEntity, value any, order int) {
	channels, ok := c.paramsets[order]
	if !ok {
		channels = make(map[string]map[string]any)
		c.paramsets[order] = channels
	}
	params, ok := channels[e.ChannelAddress()]
	if !ok {
		params = make(map[string]any)
		channels[e.ChannelAddress()] = params
	}
	params[e.Parameter()] = value
}

// Len returns the number of queued values.
func (c *Collector) Len() int {
	n := 0
	for _, channels := range c.paramsets {
		for _, params := range channels {
			n += len(params)
		}
	}
	return n
}

// Send flushes the queued values in ascending order, stopping at the first
// backend error.
func (c *Collector) Send(ctx context.Context) error {
	orders := make([]int, 0, len(c.paramsets))
	for order := range c.paramsets {
		orders = append(orders, order)
	}
	sort.Ints(orders)

	for _, order := range orders {
		channels := c.paramsets[order]
		addresses := make([]string, 0, len(channels))
		for address := range channels {
			addresses = append(addresses, address)
		}
		sort.Strings(addresses)

		for _, address := range addresses {
			if err := c.sendChannel(ctx, address, channels[address]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) sendChannel(ctx context.Context, address string, params map[string]any) error {
	if len(params) == 1 || !c.usePutParamset {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.sender.SetValue(ctx, address, homematic.ParamsetValues, name, params[name]); err != nil {
				return fmt.Errorf("setting %s.%s: %w", address, name, err)
			}
		}
		return nil
	}
	if err := c.sender.PutParamset(ctx, address, homematic.ParamsetValues, params); err != nil {
		return fmt.Errorf("putting paramset of %s: %w", address, err)
	}
	return nil
}

// bindCollector runs fn against collector, or against a fresh collector
// that is flushed afterwards when collector is nil.
func bindCollector(ctx context.Context, sender Sender, collector *Collector, fn func(*Collector) error) error {
	if collector != nil {
		return fn(collector)
	}
	own := NewCollector(sender)
	if err := fn(own); err != nil {
		return err
	}
	return own.Send(ctx)
}
