// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"os"
)

// Activate atomically repoints pointerPath at targetPath. This is the
// second phase of the activation protocol: the target file must be
// fully written before Activate is called, so a pointer that exists
// always references a loadable file.
//
// The swap creates the symlink under a temporary name in the same
// directory and renames it over the pointer, so a concurrent scan of
// the directory observes either the old pointer or the new one, never
// a missing or dangling entry.
func Activate(pointerPath, targetPath string) error {
	if _, err := os.Stat(targetPath); err != nil {
		return fmt.Errorf("activation target %s: %w", targetPath, err)
	}

	staging := pointerPath + ".next"
	if err := os.Remove(staging); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing stale staging pointer %s: %w", staging, err)
	}
	if err := os.Symlink(targetPath, staging); err != nil {
		return fmt.Errorf("staging pointer %s: %w", staging, err)
	}
	if err := os.Rename(staging, pointerPath); err != nil {
		os.Remove(staging)
		return fmt.Errorf("swapping pointer %s: %w", pointerPath, err)
	}
	return nil
}
