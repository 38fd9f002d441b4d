package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/display"
	"github.com/smokyabdulrahman/quranlake/internal/quran"
)

var (
	flagRecitersAll bool
	flagTracks      bool
)

func newRecitersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reciters [id]",
		Short: "Browse Quran reciters",
		Long:  "List reciters with a complete recitation, or show one reciter's recordings.\nNames follow the configured language (en or ar).",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReciters,
	}
	cmd.Flags().BoolVar(&flagRecitersAll, "all", false, "Include reciters without a complete recitation")
	cmd.Flags().BoolVar(&flagTracks, "tracks", false, "List the audio URL of every surah (with an id)")
	return cmd
}

func newSurahsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surahs",
		Short: "List the surahs of the Quran",
		Args:  cobra.NoArgs,
		RunE:  runSurahs,
	}
}

// catalogueApp builds the app and the catalogue language for a command.
func catalogueApp(cmd *cobra.Command) (*app, string, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	log, err := newLogger(cmd, cfg, "warn")
	if err != nil {
		return nil, "", err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return nil, "", err
	}
	return a, quran.APILanguage(cfg.Language), nil
}

func runReciters(cmd *cobra.Command, args []string) error {
	var id int
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid reciter id %q: must be a positive integer", args[0])
		}
		id = n
	}

	a, lang, err := catalogueApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if id != 0 {
		r, err := a.catalogue.Reciter(cmd.Context(), id, lang)
		if err != nil {
			return err
		}
		return printReciter(cmd, a, *r, lang)
	}

	reciters, err := a.catalogue.Reciters(cmd.Context(), lang)
	if err != nil {
		return err
	}
	if !flagRecitersAll {
		reciters = quran.CompleteReciters(reciters)
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, reciters)
	}
	tbl := display.NewTable([]string{"ID", "Name", "Recitations"})
	for _, r := range reciters {
		tbl.AddRow([]string{strconv.Itoa(r.ID), r.Name, strconv.Itoa(len(r.Moshaf))})
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintf(w, "\n  %d reciters\n\n", len(reciters))
	return nil
}

func printReciter(cmd *cobra.Command, a *app, r quran.Reciter, lang string) error {
	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "\n  %s\n\n", display.Bold(r.Name))
	tbl := display.NewTable([]string{"ID", "Recitation", "Surahs", "Server"})
	for _, m := range r.Moshaf {
		row := []string{strconv.Itoa(m.ID), m.Name, strconv.Itoa(m.SurahTotal), m.Server}
		if m.Complete() {
			tbl.AddStyledRow(row, display.Green)
			continue
		}
		tbl.AddRow(row)
	}
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)

	if !flagTracks {
		return nil
	}
	m, ok := r.CompleteMoshaf()
	if !ok && len(r.Moshaf) > 0 {
		m = r.Moshaf[0]
	}
	surahs, err := a.catalogue.Surahs(cmd.Context(), lang)
	if err != nil {
		return err
	}
	names := make(map[int]string, len(surahs))
	for _, s := range surahs {
		names[s.ID] = s.Name
	}
	for _, n := range m.Surahs() {
		fmt.Fprintf(w, "  %3d  %-20s %s\n", n, names[n], m.AudioURL(n))
	}
	fmt.Fprintln(w)
	return nil
}

func runSurahs(cmd *cobra.Command, args []string) error {
	a, lang, err := catalogueApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	surahs, err := a.catalogue.Surahs(cmd.Context(), lang)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, surahs)
	}
	tbl := display.NewTable([]string{"#", "Name", "Revealed", "Pages"})
	for _, s := range surahs {
		revealed := "Madinah"
		if s.Meccan() {
			revealed = "Makkah"
		}
		tbl.AddRow([]string{strconv.Itoa(s.ID), s.Name, revealed, fmt.Sprintf("%d-%d", s.StartPage, s.EndPage)})
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
