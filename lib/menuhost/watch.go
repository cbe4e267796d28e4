// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menuhost

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// reloadDebounce coalesces the bursts of inotify events editors
// produce for one save.
const reloadDebounce = 50 * time.Millisecond

// Watch reloads the definition at path whenever it changes, until ctx
// is cancelled. It does not load the file initially; call LoadFile
// first.
//
// The watcher monitors the parent directory for IN_CLOSE_WRITE and
// IN_MOVED_TO events on the file name, which covers in-place writes
// and the write-to-temp-then-rename pattern of most editors. A reload
// runs reloadDebounce after the first event of a burst. A definition
// that fails to parse is logged and the previous menu stays served.
func (h *Host) Watch(ctx context.Context, path string) error {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	directory := filepath.Dir(absolutePath)
	filename := filepath.Base(absolutePath)

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("initializing inotify: %w", err)
	}
	defer unix.Close(fd)

	if _, err := unix.InotifyAddWatch(fd, directory, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		return fmt.Errorf("watching %s: %w", directory, err)
	}
	h.logger.Info("watching menu definition", "path", absolutePath)

	var (
		pendingMu sync.Mutex
		pending   bool
	)
	reload := func() {
		pendingMu.Lock()
		pending = false
		pendingMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := h.LoadFile(absolutePath); err != nil {
			h.logger.Warn("menu definition reload failed", "path", absolutePath, "error", err)
		}
	}

	buffer := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return nil
		}

		// poll(2) with a short timeout keeps cancellation responsive.
		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("polling inotify: %w", err)
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reading inotify: %w", err)
		}
		if !inotifyMatchesFile(buffer[:bytesRead], filename) {
			continue
		}

		pendingMu.Lock()
		if !pending {
			pending = true
			h.clock.AfterFunc(reloadDebounce, reload)
		}
		pendingMu.Unlock()
	}
}

// inotifyMatchesFile checks whether any inotify event in the buffer
// names the target file. Layout from inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded to alignment
//	};
func inotifyMatchesFile(buffer []byte, targetFilename string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			name := nullTerminated(buffer[offset+unix.SizeofInotifyEvent : offset+eventSize])
			if name == targetFilename {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

// nullTerminated extracts a string from a null-padded byte slice.
func nullTerminated(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
