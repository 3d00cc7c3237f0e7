// Command masters generates the schedule text artifacts from the
// yearly spreadsheet, distributes them, and prepares the announcement
// mail.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nvi-inc/masters"
	"github.com/nvi-inc/masters/config"
	"github.com/nvi-inc/masters/docx"
	"github.com/nvi-inc/masters/mail"
	"github.com/nvi-inc/masters/remote"
	"github.com/nvi-inc/masters/secret"
	"github.com/nvi-inc/masters/sheet"
)

func main() {
	app := &cli.App{
		Name:  "masters",
		Usage: "generate, validate and distribute observation schedule files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "configuration file",
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "build the schedule text files, upload them and prepare the announcement mail",
				ArgsUsage: "year",
				Flags: append(variantFlags(),
					&cli.BoolFlag{
						Name:    "text-only",
						Aliases: []string{"t"},
						Usage:   "only build the schedule text file, skip notes, upload and mail",
					},
				),
				Action: generate,
			},
			{
				Name:      "request",
				Usage:     "prepare a station-availability request mail for an agency",
				ArgsUsage: "year agency",
				Flags: append(variantFlags(),
					&cli.BoolFlag{
						Name:  "text",
						Usage: "force a plain text mail body",
					},
				),
				Action: request,
			},
			{
				Name:      "notes",
				Usage:     "build the schedule note text file from the notes document",
				ArgsUsage: "year",
				Flags:     variantFlags(),
				Action:    notes,
			},
			{
				Name:      "xlsx",
				Usage:     "rebuild a schedule workbook from a rendered text file",
				ArgsUsage: "year",
				Action:    rebuild,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func variantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "master", Usage: "process the master schedule"},
		&cli.BoolFlag{Name: "intensives", Usage: "process the intensive schedule"},
	}
}

func variantOf(ctx *cli.Context) (masters.Variant, error) {
	switch {
	case ctx.Bool("master") == ctx.Bool("intensives"):
		return masters.Master, fmt.Errorf("exactly one of -master or -intensives is required")
	case ctx.Bool("intensives"):
		return masters.Intensive, nil
	}
	return masters.Master, nil
}

func yearArg(ctx *cli.Context) (int, error) {
	arg := ctx.Args().First()
	if arg == "" {
		return 0, fmt.Errorf("a schedule year was not provided")
	}
	year, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", arg)
	}
	return year, nil
}

// run bundles everything a subcommand needs once the schedule is
// parsed.
type run struct {
	cfg     *config.App
	variant masters.Variant
	year    int
	sched   *masters.Schedule
	ref     *masters.ReferenceData
}

func process(ctx *cli.Context) (*run, error) {
	variant, err := variantOf(ctx)
	if err != nil {
		return nil, err
	}
	year, err := yearArg(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	ref, err := masters.LoadReferenceData(cfg.ReferencePaths())
	if err != nil {
		return nil, err
	}
	ref.LegacyNameLimit = cfg.Legacy.NameLimit
	ref.LegacyExempt = cfg.Legacy.Stations

	path := filepath.Join(cfg.Folder, cfg.FileName(variant.String(), "xlsx", year))
	sh, err := sheet.LoadXLSX(path)
	if err != nil {
		return nil, err
	}
	sched, err := masters.ParseSchedule(sh, masters.Options{
		Variant:     variant,
		Year:        year,
		Ref:         ref,
		Constraints: cfg.Constraints,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	return &run{cfg: cfg, variant: variant, year: year, sched: sched, ref: ref}, nil
}

// report prints the accumulated messages, errors in red, informational
// lines in yellow.
func report(sched *masters.Schedule, show bool) {
	if len(sched.Messages) == 0 || (!sched.HasErrors && !show) {
		return
	}
	errColor := color.New(color.FgRed)
	infoColor := color.New(color.FgYellow)
	for _, msg := range sched.Messages {
		c := infoColor
		if msg.Kind == masters.Error {
			c = errColor
		}
		c.Printf("%s : %s\n", msg.Kind, msg.Text)
	}
}

// writeSchedule renders one schedule text file into the temp folder and
// returns its path.
func (r *run) writeSchedule(code string, useMedia bool) (string, error) {
	section := r.cfg.Section(code)
	renderer := masters.NewTextRenderer(masters.RenderSpec{
		Year:           r.year,
		Version:        r.cfg.Version(code, r.ref.Version),
		Initials:       r.cfg.Initials,
		HeaderTemplate: section.Header,
		Formats:        r.cfg.Master.Format.Merge(section.Format),
		UseMedia:       useMedia,
	})
	path := filepath.Join(os.TempDir(), r.cfg.FileName(code, "txt", r.year))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := renderer.Render(f, r.sched.Sessions); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}
	return path, f.Close()
}

// writeNotes converts the schedule notes document into the text form
// distributed next to the schedule. Returns the source document path,
// the rendered path, and the parsed notes for the announcement mail.
func (r *run) writeNotes() (string, string, *masters.Notes, error) {
	docPath := filepath.Join(r.cfg.Folder, r.cfg.FileName(r.variant.String(), "docx", r.year))
	doc, err := docx.Read(docPath)
	if err != nil {
		return "", "", nil, err
	}
	n := doc.Notes()
	path := filepath.Join(os.TempDir(), r.cfg.FileName(r.variant.String(), "notes", r.year))
	f, err := os.Create(path)
	if err != nil {
		return "", "", nil, err
	}
	if err := n.Write(f); err != nil {
		f.Close()
		return "", "", nil, err
	}
	return docPath, path, n, f.Close()
}

// upload copies files for one transfer category, feeding remote
// listings back into the run report.
func (r *run) upload(secrets secret.Provider, files []string, category string) error {
	transfer, ok := r.cfg.Transfers[category]
	if !ok {
		// This category is not distributed.
		return nil
	}
	server, ok := r.cfg.Servers[transfer.Server]
	if !ok {
		return fmt.Errorf("unknown server %q for transfer %q", transfer.Server, category)
	}
	host := remote.Host{
		Addr:    server.Host,
		Port:    server.Port,
		User:    server.User,
		KeyFile: strings.TrimSpace(server.IDRsa),
	}
	if host.KeyFile == "" {
		pw, err := secrets.Password(transfer.Server, server.User)
		if err != nil {
			return err
		}
		host.Password = pw
	}
	client, err := remote.Dial(host)
	if err != nil {
		return err
	}
	defer client.Close()
	commands := transfer.Commands
	if !contains(commands, "ls -l") {
		commands = append(commands, "ls -l")
	}
	for _, file := range files {
		remotePath := remote.RemotePath(transfer.Folder, filepath.Base(file))
		lines, err := client.PutAndExec(file, remotePath, commands, transfer.SetMode)
		if err != nil {
			return fmt.Errorf("could not copy %s to %s %s: %w", file, transfer.Server, remotePath, err)
		}
		r.sched.AddInfo(lines)
	}
	return nil
}

// execActions runs the configured post-distribution commands.
func (r *run) execActions(secrets secret.Provider) error {
	for _, action := range r.cfg.Exec {
		if action.Command == "" || action.Server == "" {
			continue
		}
		server, ok := r.cfg.Servers[action.Server]
		if !ok {
			return fmt.Errorf("unknown server %q in exec action", action.Server)
		}
		host := remote.Host{
			Addr:    server.Host,
			Port:    server.Port,
			User:    server.User,
			KeyFile: strings.TrimSpace(server.IDRsa),
		}
		if host.KeyFile == "" {
			pw, err := secrets.Password(action.Server, server.User)
			if err != nil {
				return err
			}
			host.Password = pw
		}
		client, err := remote.Dial(host)
		if err != nil {
			return fmt.Errorf("could not connect to %s: %w", action.Server, err)
		}
		r.sched.AddInfo(client.Exec(action.Command))
		client.Close()
	}
	return nil
}

func generate(ctx *cli.Context) error {
	r, err := process(ctx)
	if err != nil {
		return err
	}
	defer report(r.sched, r.cfg.Show)
	if r.sched.HasErrors {
		return fmt.Errorf("schedule has validation errors")
	}

	schedulePath, err := r.writeSchedule(r.variant.String(), false)
	if err != nil {
		return err
	}
	if ctx.Bool("text-only") {
		fmt.Println("Created", schedulePath)
		return nil
	}

	files := []string{schedulePath}
	if r.variant == masters.Master {
		mediaPath, err := r.writeSchedule("media", true)
		if err != nil {
			return err
		}
		files = append(files, mediaPath)
	}
	docPath, notesPath, n, err := r.writeNotes()
	if err != nil {
		return err
	}
	files = append(files, notesPath)

	secrets := secret.NewTerminal()
	if err := r.upload(secrets, files, "master"); err != nil {
		return err
	}
	refPaths := r.cfg.ReferencePaths()
	backup := []string{
		filepath.Join(r.cfg.Folder, r.cfg.FileName(r.variant.String(), "xlsx", r.year)),
		refPaths.Format, refPaths.Stations, refPaths.MediaKey, docPath,
	}
	if err := r.upload(secrets, backup, "backup"); err != nil {
		return err
	}
	if err := r.execActions(secrets); err != nil {
		return err
	}
	return announce(r, n)
}

// announce opens the schedule-update mail with today's note group.
func announce(r *run, n *masters.Notes) error {
	label := " "
	if r.variant == masters.Intensive {
		label = fmt.Sprintf(" %s ", r.variant)
	}
	recipients := r.cfg.Email.Recipients[r.variant.String()]
	today, lines := n.EmailLines(time.Now())
	replacer := strings.NewReplacer(
		"{updated}", time.Now().Format("January 02, 2006"),
		"{year}", strconv.Itoa(r.year),
		"{label}", label,
		"{date}", today,
		"{notes}", strings.Join(lines, "\n"),
	)
	return mail.Compose(mail.Message{
		To:      recipients.To,
		Cc:      recipients.Cc,
		Subject: replacer.Replace(r.cfg.Email.Subject),
		Body:    replacer.Replace(r.cfg.Email.Body),
	})
}

func request(ctx *cli.Context) error {
	r, err := process(ctx)
	if err != nil {
		return err
	}
	defer report(r.sched, r.cfg.Show)
	if r.sched.HasErrors {
		return fmt.Errorf("schedule has validation errors")
	}
	name := ctx.Args().Get(1)
	agency, ok := r.cfg.Agencies[name]
	if !ok {
		return fmt.Errorf("%s not a valid agency", name)
	}

	if len(agency.Antennas) == 0 {
		return fmt.Errorf("agency %s has no antennas configured", name)
	}
	names := make([]string, 0, len(agency.Antennas))
	for _, antenna := range agency.Antennas {
		names = append(names, antenna.Name)
	}
	antennaNames := names[0]
	plural := ""
	if len(names) > 1 {
		antennaNames = fmt.Sprintf("%s and %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
		plural = "s"
	}
	req := r.cfg.Request
	var body masters.BodyFormatter
	if ctx.Bool("text") {
		body = masters.NewTextBody(req.Header, r.cfg.Master.Format.Merge(req.Format))
	} else {
		body = masters.NewHTMLBody(req.Header, r.cfg.Master.Format.Merge(req.Format))
	}
	text := strings.NewReplacer(
		"{greeting}", agency.Greeting,
		"{antennas}", antennaNames,
		"{plural}", plural,
	).Replace(req.Text)
	if err := masters.BuildRequest(body, text, agency.Antennas, r.sched.Sessions); err != nil {
		return err
	}
	subject := strings.NewReplacer(
		"{year}", strconv.Itoa(r.year),
		"{antennas}", antennaNames,
	).Replace(req.Subject)
	return mail.Compose(mail.Message{
		To:      agency.To,
		Cc:      agency.Cc,
		Subject: subject,
		Body:    body.Text(),
	})
}

// notes only needs the configuration, not a parsed schedule.
func notes(ctx *cli.Context) error {
	variant, err := variantOf(ctx)
	if err != nil {
		return err
	}
	year, err := yearArg(ctx)
	if err != nil {
		return err
	}
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	r := &run{cfg: cfg, variant: variant, year: year}
	_, path, _, err := r.writeNotes()
	if err != nil {
		return err
	}
	fmt.Println("Notes saved in", path)
	return nil
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
