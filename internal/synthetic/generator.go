// Package synthetic produces placeholder case records when the court website
// cannot be read. Every record it returns is tagged ProvenanceSynthetic.
package synthetic

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
)

const dateLayout = "02/01/2006"

const stateRespondent = "State of Delhi"

var petitionerNames = []string{
	"Rajesh Kumar", "Priya Sharma", "Amit Singh", "Sunita Devi",
	"Vikash Gupta", "Meera Jain", "Rohit Verma", "Kavita Agarwal",
}

var respondentNames = []string{
	"State of Delhi", "Union of India", "Delhi Police", "Municipal Corporation of Delhi",
	"Directorate of Education", "Delhi Development Authority", "Central Bureau of Investigation",
}

var statuses = []string{"Pending", "Under Consideration", "Listed for Hearing"}

// Generator builds synthetic records. The clock is injectable so output is a
// pure function of key, rng and now.
type Generator struct {
	now func() time.Time
}

// NewGenerator returns a generator using now as its clock; nil means
// time.Now.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Generate builds a placeholder record for key, drawing all randomness from
// rng.
func (g *Generator) Generate(key model.QueryKey, rng *rand.Rand) *model.CaseRecord {
	if rng == nil {
		rng = NewSeeder(0)(key)
	}
	today := g.now()

	var parties []model.Party
	if model.IsCriminal(key.CaseType) {
		parties = []model.Party{
			{Role: model.RoleAppellant, Name: pick(rng, petitionerNames)},
			{Role: model.RoleRespondent, Name: stateRespondent},
		}
	} else {
		parties = []model.Party{
			{Role: model.RolePetitioner, Name: pick(rng, petitionerNames)},
			{Role: model.RoleRespondent, Name: pick(rng, respondentNames)},
		}
	}

	filingDate := fmt.Sprintf("%02d/%02d/%s", rng.Intn(28)+1, rng.Intn(12)+1, key.FilingYear)
	nextHearing := today.AddDate(0, 0, 7+rng.Intn(54)).Format(dateLayout)

	orders := []model.Order{{
		Date:        filingDate,
		Description: "Case registered and notice issued",
		DocumentRef: model.SyntheticRef(key, "registration"),
	}}
	if rng.Intn(2) == 0 {
		orders = append(orders, model.Order{
			Date:        today.AddDate(0, 0, -(30 + rng.Intn(151))).Format(dateLayout),
			Description: "Interim order passed",
			DocumentRef: model.SyntheticRef(key, "interim"),
		})
	}

	return &model.CaseRecord{
		Parties:         parties,
		FilingDate:      filingDate,
		NextHearingDate: nextHearing,
		Orders:          orders,
		CaseStatus:      pick(rng, statuses),
		Provenance:      model.ProvenanceSynthetic,
	}
}

// Seeder hands out the rng for one generation.
type Seeder func(key model.QueryKey) *rand.Rand

// NewSeeder returns a Seeder. A zero seed gives ambient, time-seeded
// randomness; any other seed makes each key's rng fnv64(key) ^ seed.
func NewSeeder(seed int64) Seeder {
	if seed == 0 {
		return func(model.QueryKey) *rand.Rand {
			return rand.New(rand.NewSource(ambientSeed()))
		}
	}
	return func(key model.QueryKey) *rand.Rand {
		h := fnv.New64a()
		_, _ = h.Write([]byte(key.CaseType + "|" + key.CaseNumber + "|" + key.FilingYear))
		return rand.New(rand.NewSource(int64(h.Sum64()) ^ seed))
	}
}

// ambient seeds every unseeded rng, so concurrent generations never share a
// clock tick's seed.
var ambient = struct {
	sync.Mutex
	rng *rand.Rand
}{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

func ambientSeed() int64 {
	ambient.Lock()
	defer ambient.Unlock()
	return ambient.rng.Int63()
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
