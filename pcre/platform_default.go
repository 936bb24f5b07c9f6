// Copyright (c) 2011 Florian Weimer. All rights reserved.
// See pcre.go for the full license text this file is distributed under.

//go:build !windows

package pcre

// #cgo pkg-config: libpcre
// #cgo !pcre_pkg_config LDFLAGS: -lpcre
import "C"
