// Package quran reads the mp3quran.net reciter and surah catalogue.
package quran

import (
	"strconv"
	"strings"
)

// SurahCount is the number of surahs in the Quran.
const SurahCount = 114

// Surah is one entry of the suwar list.
type Surah struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	StartPage    int    `json:"start_page"`
	EndPage      int    `json:"end_page"`
	Makkia       int    `json:"makkia"`
	Type         int    `json:"type"`
	VersesCount  int    `json:"verses_count,omitempty"`
	NumberOfAyah int    `json:"number_of_ayahs,omitempty"`
}

// Meccan reports whether the surah was revealed in Makkah.
func (s Surah) Meccan() bool {
	return s.Makkia == 1
}

// Moshaf is one recorded recitation set of a reciter.
type Moshaf struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Server     string `json:"server"`
	SurahTotal int    `json:"surah_total"`
	MoshafType int    `json:"moshaf_type"`
	SurahList  string `json:"surah_list"`
}

// Surahs parses SurahList, skipping entries that are not numbers.
func (m Moshaf) Surahs() []int {
	var out []int
	for _, f := range strings.Split(m.SurahList, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Complete reports whether the moshaf lists all 114 surahs.
func (m Moshaf) Complete() bool {
	if m.SurahList == "" {
		return false
	}
	return len(strings.Split(m.SurahList, ",")) == SurahCount
}

// AudioURL is the mp3 address of a surah in this moshaf.
func (m Moshaf) AudioURL(surah int) string {
	return m.Server + ServerID(surah) + ".mp3"
}

// Reciter is a reciter with their recordings.
type Reciter struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Letter string   `json:"letter"`
	Date   string   `json:"date"`
	Moshaf []Moshaf `json:"moshaf"`
}

// CompleteMoshaf returns the first moshaf covering every surah.
func (r Reciter) CompleteMoshaf() (Moshaf, bool) {
	for _, m := range r.Moshaf {
		if m.Complete() {
			return m, true
		}
	}
	return Moshaf{}, false
}

type recitersResponse struct {
	Reciters []Reciter `json:"reciters"`
}

type suwarResponse struct {
	Suwar []Surah `json:"suwar"`
}

// CompleteReciters keeps reciters with at least one complete moshaf.
func CompleteReciters(reciters []Reciter) []Reciter {
	out := make([]Reciter, 0, len(reciters))
	for _, r := range reciters {
		if _, ok := r.CompleteMoshaf(); ok {
			out = append(out, r)
		}
	}
	return out
}

// ServerID zero-pads a surah number to the three digits used in file names.
func ServerID(id int) string {
	s := strconv.Itoa(id)
	if len(s) >= 3 {
		return s
	}
	return strings.Repeat("0", 3-len(s)) + s
}

// APILanguage maps an app locale to the catalogue's language code.
func APILanguage(locale string) string {
	switch strings.ToLower(locale) {
	case "ar":
		return "ar"
	default:
		return "eng"
	}
}
