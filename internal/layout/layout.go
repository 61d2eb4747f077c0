// Package layout turns a scheduled match and its face-off statistics into
// the text that fills a restream deck's placeholders.
package layout

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pable/go-restream-stats/internal/model"
)

// ErrUnknownDeck is returned by Lookup for an unregistered deck name.
var ErrUnknownDeck = errors.New("unknown deck")

// ErrMatchMismatch is wrapped by Slides when a match does not have the shape
// a deck needs, such as a team match given to a 1v1 deck.
var ErrMatchMismatch = errors.New("match does not fit deck")

// Slide is the placeholder text for one slide, keyed by placeholder name.
type Slide struct {
	Name string            `yaml:"name" json:"name"`
	Text map[string]string `yaml:"text" json:"text"`
}

// Document is the full layout for one match.
type Document struct {
	Deck   string  `yaml:"deck" json:"deck"`
	Match  string  `yaml:"match" json:"match"`
	Round  string  `yaml:"round" json:"round"`
	Slides []Slide `yaml:"slides" json:"slides"`
}

// Deck lays out one tournament's slide deck.
type Deck interface {
	Name() string
	// UsesStats reports whether the deck has a face-off statistics slide.
	UsesStats() bool
	// Slides renders every slide for m. stats may be nil, in which case the
	// statistics slide is omitted.
	Slides(m model.ScheduledMatch, stats *model.FaceOffStats) ([]Slide, error)
}

var decks = map[string]Deck{}

func register(d Deck) { decks[d.Name()] = d }

func init() {
	register(TriforceBlitzS3{})
	register(ChallengeCupS8{})
	register(CoOpS3{})
}

// Lookup returns the deck registered under name.
func Lookup(name string) (Deck, error) {
	d, ok := decks[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownDeck, name, Names())
	}
	return d, nil
}

// Names lists registered deck names in sorted order.
func Names() []string {
	names := make([]string, 0, len(decks))
	for n := range decks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build renders the document for m with deck d.
func Build(d Deck, m model.ScheduledMatch, stats *model.FaceOffStats) (Document, error) {
	slides, err := d.Slides(m, stats)
	if err != nil {
		return Document{}, fmt.Errorf("%s: match %s: %w", d.Name(), m.ID, err)
	}
	return Document{Deck: d.Name(), Match: m.ID, Round: m.Round, Slides: slides}, nil
}

// Encode writes doc as YAML with two-space indentation.
func Encode(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return enc.Close()
}

func requireSolo(m model.ScheduledMatch) error {
	if m.IsTeamMatch() {
		return fmt.Errorf("%w: expected a 1v1 match, got a team match", ErrMatchMismatch)
	}
	if m.Runner1.Name == "" || m.Runner2.Name == "" {
		return fmt.Errorf("%w: match is missing a runner", ErrMatchMismatch)
	}
	return nil
}

// headToHead fills the text shared by every statistics slide.
func headToHead(text map[string]string, s *model.FaceOffStats) {
	text["encounters"] = fmt.Sprint(s.Encounters)
	text["player1_wins"] = fmt.Sprint(s.Player1Wins)
	text["player1_win_pct"] = FormatPercent(s.Player1WinPercentage)
	text["player2_wins"] = fmt.Sprint(s.Player2Wins)
	text["player2_win_pct"] = FormatPercent(s.Player2WinPercentage)
	text["draws"] = fmt.Sprint(s.Draws)
	text["draw_pct"] = FormatPercent(s.DrawPercentage)

	for prefix, p := range map[string]model.PlayerStats{"player1": s.Player1Stats, "player2": s.Player2Stats} {
		text[prefix+"_joined"] = fmt.Sprint(p.Joined)
		text[prefix+"_first"] = fmt.Sprint(p.First)
		text[prefix+"_second"] = fmt.Sprint(p.Second)
		text[prefix+"_third"] = fmt.Sprint(p.Third)
		text[prefix+"_forfeits"] = fmt.Sprint(p.Forfeits)
	}
}
