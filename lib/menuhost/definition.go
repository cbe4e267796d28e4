// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menuhost

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/menusocket"
)

// Definition is a menu definition file. The top-level fields describe
// the root item; Items are its children in display order.
//
// Example (YAML):
//
//	title: Editor
//	items:
//	  - label: _File
//	    items:
//	      - label: _Open
//	        shortcut: [[Control, o]]
//	      - type: separator
//	      - label: Auto _save
//	        toggle_type: checkmark
//	        toggle_state: 1
//	  - id: 90
//	    label: _Quit
type Definition struct {
	Title   string `yaml:"title"             json:"title"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Visible *bool  `yaml:"visible,omitempty" json:"visible,omitempty"`

	Items []ItemDefinition `yaml:"items" json:"items"`
}

// ItemDefinition is one menu item. An item with Items, or with Submenu
// set, is a submenu.
type ItemDefinition struct {
	// ID pins the item's id. Items without one get an id assigned in
	// document order, which the host keeps for the same path across
	// reloads.
	ID int32 `yaml:"id,omitempty" json:"id,omitempty"`

	Label       string     `yaml:"label,omitempty"        json:"label,omitempty"`
	Type        string     `yaml:"type,omitempty"         json:"type,omitempty"`
	Enabled     *bool      `yaml:"enabled,omitempty"      json:"enabled,omitempty"`
	Visible     *bool      `yaml:"visible,omitempty"      json:"visible,omitempty"`
	IconName    string     `yaml:"icon_name,omitempty"    json:"icon_name,omitempty"`
	ToggleType  string     `yaml:"toggle_type,omitempty"  json:"toggle_type,omitempty"`
	ToggleState *int32     `yaml:"toggle_state,omitempty" json:"toggle_state,omitempty"`
	Shortcut    [][]string `yaml:"shortcut,omitempty"     json:"shortcut,omitempty"`
	Submenu     bool       `yaml:"submenu,omitempty"      json:"submenu,omitempty"`

	// AboutToShowRefresh makes AboutToShow for this item answer true,
	// asking the mirror to re-read the subtree before opening it.
	AboutToShowRefresh bool `yaml:"about_to_show_refresh,omitempty" json:"about_to_show_refresh,omitempty"`

	// Properties holds additional raw dbusmenu properties. Named
	// fields above take precedence.
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`

	Items []ItemDefinition `yaml:"items,omitempty" json:"items,omitempty"`
}

// ErrInvalidDefinition is returned for definitions that parse but
// cannot be served.
var ErrInvalidDefinition = errors.New("invalid menu definition")

// ParseYAML parses a YAML definition.
func ParseYAML(data []byte) (*Definition, error) {
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("parsing menu definition: %w", err)
	}
	if err := definition.Validate(); err != nil {
		return nil, err
	}
	return &definition, nil
}

// ParseJSONC strips comments and trailing commas from data and parses
// the result as a JSON definition.
func ParseJSONC(data []byte) (*Definition, error) {
	stripped := jsonc.ToJSON(data)

	var definition Definition
	if err := json.Unmarshal(stripped, &definition); err != nil {
		return nil, fmt.Errorf("parsing menu definition: %w", err)
	}
	if err := definition.Validate(); err != nil {
		return nil, err
	}
	return &definition, nil
}

// ReadDefinition reads a definition file. Files ending in .json or
// .jsonc are parsed as JSON with comments; everything else as YAML.
func ReadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var definition *Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		definition, err = ParseJSONC(data)
	default:
		definition, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return definition, nil
}

// Validate checks explicit ids and item types. All problems are
// reported together.
func (d *Definition) Validate() error {
	var errs []error
	seen := make(map[int32]string)
	var walk func(items []ItemDefinition, path string)
	walk = func(items []ItemDefinition, path string) {
		for index, item := range items {
			location := fmt.Sprintf("%s[%d]", path, index)
			if item.ID < 0 {
				errs = append(errs, fmt.Errorf("%s: id %d is negative", location, item.ID))
			}
			if item.ID > 0 {
				if previous, duplicate := seen[item.ID]; duplicate {
					errs = append(errs, fmt.Errorf("%s: id %d already used by %s", location, item.ID, previous))
				}
				seen[item.ID] = location
			}
			switch item.Type {
			case "", "standard":
			case menu.TypeSeparator:
				if len(item.Items) > 0 {
					errs = append(errs, fmt.Errorf("%s: a separator cannot have items", location))
				}
			default:
				errs = append(errs, fmt.Errorf("%s: unknown type %q", location, item.Type))
			}
			switch item.ToggleType {
			case "", menu.ToggleTypeCheckmark, menu.ToggleTypeRadio:
			default:
				errs = append(errs, fmt.Errorf("%s: unknown toggle_type %q", location, item.ToggleType))
			}
			walk(item.Items, location+".items")
		}
	}
	walk(d.Items, "items")
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(errs...))
	}
	return nil
}

// rootProperties returns the root item's property bag.
func (d *Definition) rootProperties() menu.Properties {
	properties := menu.Properties{
		menu.PropertyChildrenDisplay: menu.ChildrenDisplaySubmenu,
	}
	if d.Title != "" {
		properties[menu.PropertyLabel] = d.Title
	}
	if d.Enabled != nil {
		properties[menu.PropertyEnabled] = *d.Enabled
	}
	if d.Visible != nil {
		properties[menu.PropertyVisible] = *d.Visible
	}
	return properties
}

// properties returns the item's dbusmenu property bag.
func (item *ItemDefinition) properties() menu.Properties {
	properties := make(menu.Properties, len(item.Properties)+8)
	for name, value := range item.Properties {
		properties[name] = menusocket.NormalizeValue(value)
	}
	if item.Type == menu.TypeSeparator {
		properties[menu.PropertyType] = menu.TypeSeparator
	}
	if item.Label != "" {
		properties[menu.PropertyLabel] = item.Label
	}
	if item.Enabled != nil {
		properties[menu.PropertyEnabled] = *item.Enabled
	}
	if item.Visible != nil {
		properties[menu.PropertyVisible] = *item.Visible
	}
	if item.IconName != "" {
		properties[menu.PropertyIconName] = item.IconName
	}
	if item.ToggleType != "" {
		properties[menu.PropertyToggleType] = item.ToggleType
		state := int32(0)
		if item.ToggleState != nil {
			state = *item.ToggleState
		}
		properties[menu.PropertyToggleState] = state
	}
	if len(item.Shortcut) > 0 {
		properties[menu.PropertyShortcut] = item.Shortcut
	}
	if len(item.Items) > 0 || item.Submenu {
		properties[menu.PropertyChildrenDisplay] = menu.ChildrenDisplaySubmenu
	}
	return properties
}

// pathKey names an item among its siblings for id assignment: the
// label (or the type for unlabeled items) plus an occurrence count so
// repeated labels stay distinct.
func (item *ItemDefinition) pathKey(occurrences map[string]int) string {
	key := item.Label
	if key == "" {
		key = item.Type
	}
	if key == "" {
		key = "item"
	}
	count := occurrences[key]
	occurrences[key] = count + 1
	return fmt.Sprintf("%s#%d", key, count)
}
