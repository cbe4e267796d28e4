// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dbusmenu

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Info holds the interface-level properties of an exported menu.
type Info struct {
	Version       uint32   `json:"version"`
	TextDirection string   `json:"text_direction,omitempty"`
	Status        string   `json:"status,omitempty"`
	IconThemePath []string `json:"icon_theme_path,omitempty"`
}

// Info reads the menu's interface properties with a single GetAll.
func (r *Remote) Info(ctx context.Context) (Info, error) {
	var values map[string]dbus.Variant
	err := r.object.CallWithContext(ctx, "org.freedesktop.DBus.Properties.GetAll", 0, Interface).Store(&values)
	if err != nil {
		return Info{}, fmt.Errorf("reading %s properties of %s%s: %w", Interface, r.destination, r.path, err)
	}
	return decodeInfo(values), nil
}

// decodeInfo picks the known properties out of a GetAll reply,
// ignoring values of unexpected types.
func decodeInfo(values map[string]dbus.Variant) Info {
	var info Info
	if variant, ok := values["Version"]; ok {
		info.Version, _ = variant.Value().(uint32)
	}
	if variant, ok := values["TextDirection"]; ok {
		info.TextDirection, _ = variant.Value().(string)
	}
	if variant, ok := values["Status"]; ok {
		info.Status, _ = variant.Value().(string)
	}
	if variant, ok := values["IconThemePath"]; ok {
		info.IconThemePath, _ = variant.Value().([]string)
	}
	return info
}
