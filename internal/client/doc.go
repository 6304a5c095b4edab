// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the client process runtime.
//
// It restores the persisted session, runs the background cache refresh and
// releases the local database when the process is asked to stop.
package client
