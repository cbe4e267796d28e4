// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import "strings"

// MnemonicLabel strips mnemonic markers from a dbusmenu label. Each
// "_X" where X is not an underscore becomes "X". A doubled underscore
// is kept verbatim, as is a trailing lone underscore.
//
//	MnemonicLabel("E_xit")     == "Exit"
//	MnemonicLabel("snake__id") == "snake__id"
func MnemonicLabel(label string) string {
	if !strings.Contains(label, "_") {
		return label
	}
	var builder strings.Builder
	builder.Grow(len(label))
	for index := 0; index < len(label); index++ {
		character := label[index]
		if character != '_' || index+1 == len(label) {
			builder.WriteByte(character)
			continue
		}
		if label[index+1] == '_' {
			builder.WriteString("__")
			index++
			continue
		}
		// Drop the marker; the next iteration writes the mnemonic
		// character itself.
	}
	return builder.String()
}
