// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/copyright/notice"
	"go.astrophena.name/copyright/testutil"
)

const source = `// Copyright (c) 2019 Foo Authors.

package foo

func Foo() {}
`

func newUpdater() *Updater {
	return &Updater{
		Now: func() time.Time { return time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC) },
	}
}

// editAt simulates typing at offset: the buffer text is left as is, but
// it becomes dirty and the cursor moves to offset.
func editAt(b *MemBuffer, offset int) {
	b.SetText(b.Text())
	b.Select(Region{Begin: offset, End: offset})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		in          string
		year        int
		want        string
		wantChanged bool
	}{
		"appends year": {
			in:          source,
			want:        strings.Replace(source, "2019", "2019, 2021", 1),
			wantChanged: true,
		},
		"up to date": {
			in:   source,
			year: 2019,
			want: source,
		},
		"no notice": {
			in:   "package foo\n",
			want: "package foo\n",
		},
		"year override": {
			in:          "# Copyright (C) 2018-2019 Foo\n",
			year:        2019,
			want:        "# Copyright (C) 2018, 2019 Foo\n",
			wantChanged: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			u := newUpdater()
			u.Year = tc.year
			b := NewMemBuffer("test", tc.in)
			changed, err := u.Update(ctx, b)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, changed, tc.wantChanged)
			testutil.AssertEqual(t, b.Text(), tc.want)
			testutil.AssertEqual(t, b.IsDirty(), tc.wantChanged)
		})
	}
}

func TestUpdateMalformed(t *testing.T) {
	u := newUpdater()
	b := NewMemBuffer("broken.go", "// Copyright (c) 2019- Foo\n")
	_, err := u.Update(context.Background(), b)
	if !errors.Is(err, notice.ErrMalformedYears) {
		t.Fatalf("want ErrMalformedYears, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "broken.go: ") {
		t.Fatalf("error must name the buffer, got %q", err)
	}
	testutil.AssertEqual(t, b.Text(), "// Copyright (c) 2019- Foo\n")
}

func TestOnPreSave(t *testing.T) {
	ctx := context.Background()

	t.Run("clean buffer is not touched", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		if err := u.OnPreSave(ctx, b); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, b.Text(), source)
	})

	t.Run("dirty buffer is updated", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		editAt(b, len(source))
		if err := u.OnPreSave(ctx, b); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, strings.HasPrefix(b.Text(), "// Copyright (c) 2019, 2021 Foo Authors.\n"), true)
	})

	t.Run("tracked buffer is skipped", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		editAt(b, 5) // On the notice line.
		u.OnModified(ctx, b)
		if err := u.OnPreSave(ctx, b); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, b.Text(), source)
	})

	t.Run("malformed notice fails", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", "// Copyright (c) 2017, 2019- Foo\n")
		editAt(b, 0)
		if err := u.OnPreSave(ctx, b); !errors.Is(err, notice.ErrMalformedYears) {
			t.Fatalf("want ErrMalformedYears, got %v", err)
		}
	})
}

func TestOnModified(t *testing.T) {
	ctx := context.Background()
	noticeLine := 5
	codeLine := strings.Index(source, "func")

	t.Run("untracked buffer off the notice stays untracked", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		editAt(b, codeLine)
		u.OnModified(ctx, b)
		_, tracked := u.Tracker().Lookup("a")
		testutil.AssertEqual(t, tracked, false)
	})

	t.Run("notice line marks buffer updated", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		editAt(b, noticeLine)
		u.OnModified(ctx, b)
		updated, tracked := u.Tracker().Lookup("a")
		testutil.AssertEqual(t, updated, true)
		testutil.AssertEqual(t, tracked, true)
	})

	t.Run("leaving the notice line forces a rescan", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		editAt(b, noticeLine)
		u.OnModified(ctx, b)
		editAt(b, codeLine)
		u.OnModified(ctx, b)
		updated, tracked := u.Tracker().Lookup("a")
		testutil.AssertEqual(t, updated, false)
		testutil.AssertEqual(t, tracked, true)

		if err := u.OnPreSave(ctx, b); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, strings.Contains(b.Text(), "2019, 2021"), true)
	})

	t.Run("no selection is ignored", func(t *testing.T) {
		u := newUpdater()
		b := NewMemBuffer("a", source)
		b.SetText(source)
		u.OnModified(ctx, b)
		testutil.AssertEqual(t, u.Tracker().Len(), 0)
	})
}

func TestOnClose(t *testing.T) {
	ctx := context.Background()
	u := newUpdater()

	// Closing an untracked buffer does nothing.
	u.OnClose(ctx, NewMemBuffer("never-seen", ""))
	testutil.AssertEqual(t, u.Tracker().Len(), 0)

	a, b := NewMemBuffer("a", source), NewMemBuffer("b", source)
	editAt(a, 0)
	editAt(b, 0)
	u.OnModified(ctx, a)
	u.OnModified(ctx, b)
	testutil.AssertEqual(t, u.Tracker().Len(), 2)

	u.OnClose(ctx, a)
	_, tracked := u.Tracker().Lookup("a")
	testutil.AssertEqual(t, tracked, false)
	testutil.AssertEqual(t, u.Tracker().Len(), 1)

	u.OnClose(ctx, a)
	testutil.AssertEqual(t, u.Tracker().Len(), 1)
}

func TestSessionAcrossSaves(t *testing.T) {
	ctx := context.Background()
	u := newUpdater()
	b := NewMemBuffer("a", source)

	// First save updates the notice.
	editAt(b, len(source))
	if err := u.OnPreSave(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.MarkClean()
	once := b.Text()

	// The host reports the updater's own edit with the cursor on the notice.
	r, ok := FindNotice(b)
	testutil.AssertEqual(t, ok, true)
	b.Select(Region{Begin: r.Begin, End: r.Begin})
	u.OnModified(ctx, b)

	// Later saves skip the scan, even if the year changes meanwhile.
	u.Year = 2030
	editAt(b, r.Begin)
	if err := u.OnPreSave(ctx, b); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, b.Text(), once)

	// Reopening the buffer starts a new session.
	u.OnClose(ctx, b)
	b = NewMemBuffer("a", once)
	editAt(b, len(once))
	if err := u.OnPreSave(ctx, b); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, strings.HasPrefix(b.Text(), "// Copyright (c) 2019, 2021, 2030 Foo Authors."), true)
}
