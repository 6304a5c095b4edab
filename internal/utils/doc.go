// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes the resty HTTP client constructor, request identifiers and
// bearer-token claim parsing.
package utils
