package main

import (
	"fmt"
	"strings"
	"time"

	"jhove2/internal/store"
)

const shortIDLength = 8

type runView struct {
	ID         string    `json:"id"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	Paths      []string  `json:"paths"`
	Root       string    `json:"root"`
	RootFormat string    `json:"root_format,omitempty"`
	Sources    int       `json:"sources"`
	Clumps     int       `json:"clumps"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Invalid    int       `json:"invalid"`
}

func runViews(runs []store.Run) []runView {
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, runView{
			ID:         r.ID,
			Started:    r.Started,
			Finished:   r.Finished,
			Paths:      r.Paths,
			Root:       r.RootName,
			RootFormat: r.RootFormat,
			Sources:    r.Sources,
			Clumps:     r.Clumps,
			Errors:     r.Errors,
			Warnings:   r.Warnings,
			Invalid:    r.Invalid,
		})
	}
	return views
}

func buildRunListRows(runs []store.Run) [][]string {
	if len(runs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		root := r.RootName
		if r.RootFormat != "" {
			root = fmt.Sprintf("%s (%s)", root, r.RootFormat)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			formatDisplayTime(r.Started),
			formatDuration(r.Finished.Sub(r.Started)),
			fmt.Sprintf("%d", r.Sources),
			fmt.Sprintf("%d", r.Invalid),
			fmt.Sprintf("%d", r.Errors),
			root,
		})
	}
	return rows
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
