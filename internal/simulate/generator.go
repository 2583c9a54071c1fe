package simulate

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

// freshEntityBase keeps planted and reciprocal entities apart from the noise pool.
const freshEntityBase = 900_000_000

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// Options parameterise a synthetic ledger.
type Options struct {
	Days       int
	RowsPerDay int
	Entities   int
	Planted    int
	Reciprocal int
	Malformed  int
	Seed       int64
	Start      time.Time
	Delimiter  string
}

// Ledger is a generated ledger plus the ground truth needed to check a screening run.
type Ledger struct {
	Lines         []string
	PlantedIDs    []string
	ReciprocalIDs []string
	MalformedRows int
}

// Generator produces deterministic synthetic ledgers.
type Generator struct {
	opts   Options
	rng    *rand.Rand
	seq    int
	fresh  int
	logger zerolog.Logger
}

// NewGenerator constructs a generator, filling unset options with small defaults.
func NewGenerator(opts Options, logger zerolog.Logger) *Generator {
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.RowsPerDay < 0 {
		opts.RowsPerDay = 0
	}
	if opts.Entities < 2 {
		opts.Entities = 50
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2017, 11, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Delimiter == "" {
		opts.Delimiter = "|"
	}

	return &Generator{
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger.With().Str("component", "simulator").Logger(),
	}
}

// Generate builds the ledger. Row order is shuffled.
func (g *Generator) Generate() Ledger {
	var out Ledger

	for day := 0; day < g.opts.Days; day++ {
		date := g.opts.Start.AddDate(0, 0, day)
		for i := 0; i < g.opts.RowsPerDay; i++ {
			sender := g.rng.Intn(g.opts.Entities) + 1
			receiver := g.rng.Intn(g.opts.Entities-1) + 1
			if receiver >= sender {
				receiver++
			}
			out.Lines = append(out.Lines, g.row(g.nextID(), date, g.noiseAmount(), entityID(sender), entityID(receiver)))
		}
	}

	for i := 0; i < g.opts.Planted; i++ {
		date := g.randomDay()
		a, b, c := g.freshEntity(), g.freshEntity(), g.freshEntity()
		first := g.noiseAmount()
		// 90..100 % of the first leg, rounded up to whole cents.
		cents := (first.cents*int64(90+g.rng.Intn(11)) + 99) / 100
		second := amount{cents: cents}

		id1, id2 := g.nextID(), g.nextID()
		out.Lines = append(out.Lines,
			g.row(id1, date, first, a, b),
			g.row(id2, date, second, b, c),
		)
		out.PlantedIDs = append(out.PlantedIDs, id1, id2)
	}

	for i := 0; i < g.opts.Reciprocal; i++ {
		date := g.randomDay()
		a, b := g.freshEntity(), g.freshEntity()
		first := g.noiseAmount()
		second := amount{cents: first.cents * 95 / 100}

		id1, id2 := g.nextID(), g.nextID()
		out.Lines = append(out.Lines,
			g.row(id1, date, first, a, b),
			g.row(id2, date, second, b, a),
		)
		out.ReciprocalIDs = append(out.ReciprocalIDs, id1, id2)
	}

	for i := 0; i < g.opts.Malformed; i++ {
		out.Lines = append(out.Lines, g.malformedRow(i))
		out.MalformedRows++
	}

	g.rng.Shuffle(len(out.Lines), func(i, j int) {
		out.Lines[i], out.Lines[j] = out.Lines[j], out.Lines[i]
	})

	g.logger.Debug().Int("lines", len(out.Lines)).
		Int("planted", len(out.PlantedIDs)).
		Int("reciprocal", len(out.ReciprocalIDs)).
		Int("malformed", out.MalformedRows).
		Msg("synthetic ledger generated")
	return out
}

// WriteCSV writes the ledger as a single-column file with a header row.
func WriteCSV(w io.Writer, ledger Ledger) error {
	if _, err := io.WriteString(w, "transaction\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, line := range ledger.Lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("write ledger line: %w", err)
		}
	}
	return nil
}

type amount struct {
	cents int64
}

func (a amount) String() string {
	return fmt.Sprintf("%d.%02d", a.cents/100, a.cents%100)
}

func (g *Generator) noiseAmount() amount {
	return amount{cents: int64(100 + g.rng.Intn(999_900))}
}

func (g *Generator) randomDay() time.Time {
	return g.opts.Start.AddDate(0, 0, g.rng.Intn(g.opts.Days))
}

func (g *Generator) freshEntity() string {
	g.fresh++
	return entityID(freshEntityBase + g.fresh)
}

// nextID derives a 64-hex content hash from a run-local sequence number.
func (g *Generator) nextID() string {
	g.seq++
	sum := crypto.Keccak256([]byte(fmt.Sprintf("flowscreen/%d/%d", g.opts.Seed, g.seq)))
	return hex.EncodeToString(sum)
}

func (g *Generator) row(id string, date time.Time, amt amount, sender, receiver string) string {
	layout := dateLayouts[g.rng.Intn(len(dateLayouts))]
	return strings.Join([]string{id, date.Format(layout), amt.String(), sender, receiver}, g.opts.Delimiter)
}

func (g *Generator) malformedRow(i int) string {
	date := g.randomDay()
	sender, receiver := entityID(1), entityID(2)
	switch i % 5 {
	case 0:
		return strings.Join([]string{g.nextID(), date.Format("2006-01-02"), "12.3", sender, receiver}, g.opts.Delimiter)
	case 1:
		return strings.Join([]string{"not-a-hash", date.Format("2006-01-02"), "10.00", sender, receiver}, g.opts.Delimiter)
	case 2:
		return strings.Join([]string{g.nextID(), date.Format("2006-01-02"), "10.00", sender, sender}, g.opts.Delimiter)
	case 3:
		return strings.Join([]string{g.nextID(), date.Format("2006-01-02"), "10.00", sender}, g.opts.Delimiter)
	default:
		return strings.Join([]string{g.nextID(), "not a date", "10.00", sender, receiver}, g.opts.Delimiter)
	}
}

func entityID(n int) string {
	return fmt.Sprintf("ID%014d", n)
}
