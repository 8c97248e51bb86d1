// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Updatecopyright keeps the years of copyright notices up to date.

A copyright notice is a line like

	// Copyright (c) 2019, 2021-2023 Foo Authors.

where the marker is one of (c), (C) or ©. The first notice in a file gets the
current year added to its list of years, keeping the style of the list: a
list without ranges stays without ranges, and "," or ", " separators are kept.

Usage:

	updatecopyright [flags] [path ...]

By default it walks each path (the current directory if none are given) and
updates every file with a known extension, printing the names of the files it
changed. A single "-" path reads the text from standard input and prints it
with its notice updated to standard output, for use as an editor filter.

With -watch it keeps running and treats every write to a watched file as an
edit followed by a save. Like an editor plugin, it remembers per file whether
the notice was already brought up to date, and rescans only after an edit away
from the notice line.

Settings are read from a .copyright.toml file in the current directory (see
-config), which can contain:

  - year: the year to add instead of the current one.
  - inclusive_ranges: if true, a range "a-b" covers b as well. By default it
    covers a through b-1, as earlier versions of the updater did.
  - join_adjacent_pairs: if true, two adjacent years are written as "a-b"
    instead of "a, b".
  - extensions: the file extensions to process, like [".go", ".py"].
  - exclusions: path suffixes to skip; entries ending in "/" skip whole
    directories.

The COPYRIGHT_YEAR environment variable and the -year flag override the year
from the file, in that order.

When started by systemd with -watch (Type=notify), it reports readiness once
all directories are watched and pings the watchdog if WatchdogSec is set.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/copyright/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
