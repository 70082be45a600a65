package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"pm-go/internal/model"
	"pm-go/internal/pm"
)

const passwordMask = "********"

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be text, json or yaml", s)
	}
}

// masked returns the records as they may be printed: passwords that are not
// visible are replaced by passwordMask.
func masked(records []model.DisplayRecord) []model.CredentialRecord {
	out := make([]model.CredentialRecord, len(records))
	for i, r := range records {
		out[i] = r.CredentialRecord
		if !r.PasswordVisible {
			out[i].Password = passwordMask
		}
	}
	return out
}

func writeRecords(w io.Writer, format outputFormat, records []model.DisplayRecord) error {
	switch format {
	case formatJSON:
		return writeJSON(w, masked(records))
	case formatYAML:
		return writeYAML(w, masked(records))
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tPASSWORD\tWEBSITE\tEMAIL\tUPDATED")
	for _, r := range masked(records) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Username, r.Password, dash(r.Website), dash(r.Email), shortTime(r.UpdatedAt))
	}
	return tw.Flush()
}

func writeRecord(w io.Writer, format outputFormat, r model.CredentialRecord) error {
	switch format {
	case formatJSON:
		return writeJSON(w, r)
	case formatYAML:
		return writeYAML(w, r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", r.Title)
	fmt.Fprintf(tw, "Username:\t%s\n", r.Username)
	fmt.Fprintf(tw, "Password:\t%s\n", r.Password)
	fmt.Fprintf(tw, "Website:\t%s\n", dash(r.Website))
	fmt.Fprintf(tw, "Email:\t%s\n", dash(r.Email))
	fmt.Fprintf(tw, "Created:\t%s\n", r.CreatedAt)
	fmt.Fprintf(tw, "Updated:\t%s\n", r.UpdatedAt)
	return tw.Flush()
}

func writeBackups(w io.Writer, format outputFormat, infos []pm.BackupInfo) error {
	if infos == nil {
		infos = []pm.BackupInfo{}
	}
	switch format {
	case formatJSON:
		return writeJSON(w, infos)
	case formatYAML:
		return writeYAML(w, infos)
	}

	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "No backups.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Size, info.ModifiedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortTime renders a stored timestamp to the second, or as stored when it
// cannot be parsed.
func shortTime(s string) string {
	t, err := pm.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
