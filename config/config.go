// Package config loads the application configuration: file-name
// templates, output format tables, header/footer and mail templates,
// server definitions, and the validation constraints that are policy
// rather than reference data.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nvi-inc/masters"
)

// Section describes one schedule file type (master, intensives, media).
type Section struct {
	Header    string              `yaml:"header"`
	Version   string              `yaml:"version"`
	Format    masters.FormatTable `yaml:"format"`
	Filenames map[string]string   `yaml:"filenames"` // extension -> name template
}

// Server is one remote host entry.
type Server struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user" validate:"required"`
	Group    string `yaml:"group"`
	IDRsa    string `yaml:"id_rsa"`
	Password string `yaml:"-"`
}

// Transfer describes where one category of output files is copied.
type Transfer struct {
	Server   string   `yaml:"server" validate:"required"`
	Folder   string   `yaml:"folder" validate:"required"`
	Commands []string `yaml:"commands"`
	SetMode  bool     `yaml:"setmode"`
}

// ExecAction is a post-run command on a remote server.
type ExecAction struct {
	Server  string `yaml:"server"`
	Command string `yaml:"command"`
}

// Recipients is a mail address list pair.
type Recipients struct {
	To []string `yaml:"to"`
	Cc []string `yaml:"cc"`
}

// Email configures the schedule-update announcement mail.
type Email struct {
	Subject    string                `yaml:"subject"`
	Body       string                `yaml:"body"`
	Recipients map[string]Recipients `yaml:",inline"`
}

// Request configures the per-agency schedule-request mail.
type Request struct {
	Subject string              `yaml:"subject"`
	Text    string              `yaml:"text"`
	Header  string              `yaml:"header"`
	Format  masters.FormatTable `yaml:"format"`
}

// Agency is one contact entry for schedule requests. Antennas keep the
// configured order so the mail lists stations predictably.
type Agency struct {
	Greeting string            `yaml:"greeting"`
	To       []string          `yaml:"to"`
	Cc       []string          `yaml:"cc"`
	Antennas []masters.Antenna `yaml:"antennas"`
}

func (a *Agency) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Greeting string    `yaml:"greeting"`
		To       []string  `yaml:"to"`
		Cc       []string  `yaml:"cc"`
		Antennas yaml.Node `yaml:"antennas"`
	}
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	a.Greeting, a.To, a.Cc = p.Greeting, p.To, p.Cc
	a.Antennas = nil
	if p.Antennas.IsZero() {
		return nil
	}
	if p.Antennas.Kind != yaml.MappingNode {
		return fmt.Errorf("antennas must be a mapping")
	}
	for i := 0; i+1 < len(p.Antennas.Content); i += 2 {
		a.Antennas = append(a.Antennas, masters.Antenna{
			ID:   p.Antennas.Content[i].Value,
			Name: p.Antennas.Content[i+1].Value,
		})
	}
	return nil
}

// Legacy bundles the old recording-system naming rule.
type Legacy struct {
	NameLimit int      `yaml:"name_limit"`
	Stations  []string `yaml:"stations"`
}

// Files names the reference data files, relative to Folder.
type Files struct {
	Format       string `yaml:"format" validate:"required"`
	Stations     string `yaml:"stations" validate:"required"`
	MediaKey     string `yaml:"media_key" validate:"required"`
	SessionTypes string `yaml:"session_types"`
}

// App is the full application configuration.
type App struct {
	Folder      string              `yaml:"folder" validate:"required"`
	Initials    string              `yaml:"initials" validate:"required"`
	Debug       bool                `yaml:"debug"`
	Show        bool                `yaml:"show"`
	Files       Files               `yaml:"files"`
	Master      Section             `yaml:"master"`
	Intensives  Section             `yaml:"intensives"`
	Media       Section             `yaml:"media"`
	Constraints map[string]int      `yaml:"constraints"`
	Legacy      Legacy              `yaml:"legacy"`
	Servers     map[string]Server   `yaml:"servers"`
	Transfers   map[string]Transfer `yaml:"transfers"`
	Exec        []ExecAction        `yaml:"exec"`
	Email       Email               `yaml:"email"`
	Request     Request             `yaml:"request"`
	Agencies    map[string]Agency   `yaml:"agencies"`
}

// Load reads and validates the configuration file.
func Load(path string) (*App, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var app App
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	v := validator.New()
	if err := v.Struct(app); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	for name, server := range app.Servers {
		if err := v.Struct(server); err != nil {
			return nil, fmt.Errorf("invalid server %q in %s: %w", name, path, err)
		}
		if server.Port == 0 {
			server.Port = 22
			app.Servers[name] = server
		}
	}
	for name, transfer := range app.Transfers {
		if err := v.Struct(transfer); err != nil {
			return nil, fmt.Errorf("invalid transfer %q in %s: %w", name, path, err)
		}
	}
	return &app, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Section returns the file-type section for a schedule code, falling
// back to master for codes without their own entry.
func (a *App) Section(code string) Section {
	switch code {
	case "intensives":
		return a.Intensives
	case "media":
		if a.Media.Header != "" || len(a.Media.Format) > 0 {
			return a.Media
		}
	}
	return a.Master
}

// Version returns the output version string for a schedule code,
// falling back to the master version.
func (a *App) Version(code, masterVersion string) string {
	if s := a.Section(code); s.Version != "" {
		return s.Version
	}
	return masterVersion
}

// FileName expands a file-name template for a schedule code and year.
// Templates carry {year} and {yy} placeholders.
func (a *App) FileName(code, extension string, year int) string {
	section := a.Section(code)
	tmpl, ok := section.Filenames[extension]
	if !ok {
		return fmt.Sprintf("%s.%s", code, extension)
	}
	y := fmt.Sprintf("%d", year)
	return strings.NewReplacer("{year}", y, "{yy}", y[len(y)-2:]).Replace(tmpl)
}

// ReferencePaths resolves the reference file locations.
func (a *App) ReferencePaths() masters.ReferencePaths {
	join := func(name string) string {
		if name == "" {
			return ""
		}
		return filepath.Join(a.Folder, name)
	}
	return masters.ReferencePaths{
		Format:       join(a.Files.Format),
		Stations:     join(a.Files.Stations),
		MediaKey:     join(a.Files.MediaKey),
		SessionTypes: join(a.Files.SessionTypes),
	}
}
