/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package group provides an aggregate view over the devices that currently
// report the same group or location id. Bulbs store that membership
// themselves; this package never synthesizes or persists it.
package group

import (
	"time"

	"github.com/facebook/lifx/device"
	"github.com/facebook/lifx/protocol"
)

// MembershipFunc returns the devices currently reporting id as their group
// or location.
type MembershipFunc func(id [protocol.GroupLocationIDSize]byte) []*device.Device

// LabelFunc returns the (label, updated_at) pair to use for id. When members
// disagree, the LabelFunc itself is responsible for returning the newest
// pair; Group.Label returns its label as is.
type LabelFunc func(id [protocol.GroupLocationIDSize]byte) (label string, updatedAt uint64, ok bool)

// Group is a read-through view over every device that currently reports the
// same group or location id. It holds no state of its own beyond the id: a
// Group is a lens onto a Client's live registry, not a cache.
type Group struct {
	id        [protocol.GroupLocationIDSize]byte
	members   MembershipFunc
	labelFunc LabelFunc
}

// New builds a Group for id, backed by members and labelFunc.
func New(id [protocol.GroupLocationIDSize]byte, members MembershipFunc, labelFunc LabelFunc) *Group {
	return &Group{id: id, members: members, labelFunc: labelFunc}
}

// ID returns the group's raw wire id.
func (g *Group) ID() [protocol.GroupLocationIDSize]byte { return g.id }

// IDString renders ID as lowercase hex, for logging and map keys.
func (g *Group) IDString() string { return protocol.BytesToID(g.id) }

// Members returns every device currently reporting this group's id.
func (g *Group) Members() []*device.Device { return g.members(g.id) }

// Label returns the newest (label, updated_at) pair any member has
// advertised for this group. Members in the same group can disagree about
// the label after a rename races a discovery round; the newest wins.
func (g *Group) Label() string {
	label, _, ok := g.labelFunc(g.id)
	if !ok {
		return ""
	}
	return label
}

// FadePower fades every member on or off over duration. Members are handled
// sequentially and independently: a failure on one member does not prevent
// the rest from being commanded, and the group has no notion of atomicity
// across its members.
func (g *Group) FadePower(on bool, duration time.Duration) []error {
	var errs []error
	for _, d := range g.Members() {
		if err := d.FadePower(on, duration); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// PowerToggle reads each member's own power state and fades it to the
// opposite state; members are not forced to a single, group-wide target
// state.
func (g *Group) PowerToggle(duration time.Duration) []error {
	var errs []error
	for _, d := range g.Members() {
		if err := d.PowerToggle(duration); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// FadeColor fades every member to c over duration, sequentially.
func (g *Group) FadeColor(c protocol.HSBK, duration time.Duration) []error {
	var errs []error
	for _, d := range g.Members() {
		if err := d.FadeColor(c, duration); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
