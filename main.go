// srcindex - source code index core for project-aware editors.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/jeranaias/srcindex/internal/config"
	"github.com/jeranaias/srcindex/internal/element"
	"github.com/jeranaias/srcindex/internal/pipeline"
	"github.com/jeranaias/srcindex/internal/util"
	"github.com/jeranaias/srcindex/internal/workspace"
)

const usage = `srcindex - source code index core

Usage:
  srcindex [-config FILE] index ROOT            full reindex of a project
  srcindex [-config FILE] watch ROOT            reindex on save until interrupted
  srcindex [-config FILE] at ROOT FILE ROW COL  element at a text location
  srcindex [-config FILE] debug FILE [OUT]      one-off extraction, no persistence
`

func main() {
	configPath := flag.String("config", "", "path to a TOML or JSON config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}

	ws := workspace.New(cfg, nil)
	defer ws.Close()

	var err error
	switch args[0] {
	case "index":
		err = runIndex(ws, args[1:])
	case "watch":
		err = runWatch(ws, args[1:])
	case "at":
		err = runAt(ws, args[1:])
	case "debug":
		err = runDebug(ws, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "srcindex: %v\n", err)
	os.Exit(1)
}

// runIndex performs a full project reindex and waits for it to finish
func runIndex(ws *workspace.Workspace, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("index needs exactly one project root")
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := ws.QueueReindexAll(root); err != nil {
		return err
	}
	return waitFor(ws, pipeline.TaskReindexAll)
}

// runWatch reindexes the project, then keeps it current until interrupted
func runWatch(ws *workspace.Workspace, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("watch needs exactly one project root")
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := ws.QueueReindexAll(root); err != nil {
		return err
	}
	if _, err := ws.Watch(root); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-ws.Events():
			printEvent(ev)
		case si := <-ws.Indexes():
			fmt.Printf("published index for %s (%d rows)\n", si.Path, si.RowCount())
		case <-sig:
			return nil
		}
	}
}

// runAt reindexes one file and answers a point query against its index
func runAt(ws *workspace.Workspace, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("at needs ROOT FILE ROW COL")
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	file, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad row: %w", err)
	}
	col, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("bad col: %w", err)
	}

	if err := ws.QueueReindex(root, file, false); err != nil {
		return err
	}

	for {
		select {
		case si := <-ws.Indexes():
			if si.Path != file {
				continue
			}
			el, ok := si.ElementAt(row, col)
			if !ok {
				fmt.Printf("no element at %d:%d\n", row, col)
				return nil
			}
			fmt.Println(describe(el))
			return nil
		case ev := <-ws.Events():
			if ev.Status == pipeline.StatusFailed {
				return fmt.Errorf("reindex failed: %s", ev.Error)
			}
		}
	}
}

// runDebug extracts one file without persisting and dumps what came out
func runDebug(ws *workspace.Workspace, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("debug needs FILE [OUT]")
	}
	file, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	res, err := ws.DebugReindex(filepath.Dir(file), file)
	if err != nil {
		return err
	}

	if len(args) == 2 {
		data, err := json.MarshalIndent(dump(res.Elements), "", "  ")
		if err != nil {
			return err
		}
		return util.AtomicWriteFile(args[1], data, 0644)
	}

	for _, el := range res.Elements {
		fmt.Println(describe(el))
	}
	return nil
}

// waitFor drains events until the given task kind completes or fails
func waitFor(ws *workspace.Workspace, kind pipeline.TaskKind) error {
	for ev := range ws.Events() {
		printEvent(ev)
		if ev.Kind != kind {
			continue
		}
		switch ev.Status {
		case pipeline.StatusCompleted:
			return nil
		case pipeline.StatusFailed:
			return fmt.Errorf("%s", ev.Error)
		}
	}
	return nil
}

func printEvent(ev pipeline.Event) {
	target := ev.File
	if target == "" {
		target = ev.Project
	}
	if ev.Error != "" {
		fmt.Printf("[%s] %s %s: %s\n", ev.Status, ev.Kind, target, ev.Error)
		return
	}
	fmt.Printf("[%s] %s %s\n", ev.Status, ev.Kind, target)
}

// describe formats one element for terminal output
func describe(el element.Element) string {
	switch e := el.(type) {
	case *element.Definition:
		return fmt.Sprintf("%s %s @%d+%d body=[%d,%d]", e.Kind, e.Name, e.Start, e.Len, e.BodyStart, e.BodyEnd)
	case *element.Reference:
		name := "?"
		if e.Target != nil {
			name = e.Target.Name
		}
		return fmt.Sprintf("ref -> %s @%d+%d", name, e.Start, e.Len)
	default:
		return fmt.Sprintf("element @%d+%d", el.Offset(), el.Length())
	}
}

// dumpedElement is the flattened JSON shape for debug dumps
type dumpedElement struct {
	Type   string `json:"type"`
	Kind   string `json:"kind,omitempty"`
	Name   string `json:"name,omitempty"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Body   []int  `json:"body,omitempty"`
	Owner  string `json:"owner,omitempty"`
	Target string `json:"target,omitempty"`
}

func dump(els []element.Element) []dumpedElement {
	out := make([]dumpedElement, 0, len(els))
	for _, el := range els {
		switch e := el.(type) {
		case *element.Definition:
			d := dumpedElement{
				Type: "definition", Kind: e.Kind.String(), Name: e.Name,
				Start: e.Start, Length: e.Len, Body: []int{e.BodyStart, e.BodyEnd},
			}
			if e.Owner != nil {
				d.Owner = e.Owner.Name
			}
			out = append(out, d)
		case *element.Reference:
			d := dumpedElement{Type: "reference", Start: e.Start, Length: e.Len}
			if e.Target != nil {
				d.Target = e.Target.Name
			}
			out = append(out, d)
		}
	}
	return out
}
