package words

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const FallbackDefinition = "Listen carefully to the pronunciation."

var localDefinitions = map[string]string{
	"floccinaucinihilipilification":                 "The action or habit of estimating something as worthless.",
	"hippopotomonstrosesquipedaliophobia":           "The fear of long words.",
	"pneumonoultramicroscopicsilicovolcanoconiosis": "A lung disease caused by inhaling very fine ash and sand dust.",
	"supercalifragilisticexpialidocious":            "Extraordinarily good; wonderful.",
	"antidisestablishmentarianism":                  "Opposition to the disestablishment of the Church of England.",
	"pseudopseudohypoparathyroidism":                "A mild form of inherited pseudohypoparathyroidism.",
	"honorificabilitudinitatibus":                   "The state of being able to achieve honours.",
	"honorificabilitudinity":                        "The state of being able to achieve honours.",
	"dichlorodiphenyltrichloroethane":               "A colorless, tasteless, and almost odorless crystalline chemical compound (DDT).",
	"thyroparathyroidectomy":                        "Surgical removal of the thyroid and parathyroid glands.",
	"psychoneuroendocrinological":                   "Relating to the interaction between psychological processes and the nervous and endocrine systems.",
	"otorhinolaryngological":                        "Relating to the study of diseases of the ear, nose, and throat.",
	"immunoelectrochemiluminescence":                "A technique used for detection of antigens or antibodies.",
	"radioallergosorbent":                           "A test used to detect specific IgE antibodies to suspected allergens.",
	"sternocleidomastoid":                           "A pair of long muscles that connect the sternum, clavicle, and mastoid process.",
	"hexakosioihexekontahexaphobia":                 "Fear of the number 666.",
	"sesquipedalian":                                "Characterized by long words; long-winded.",
	"defenestration":                                "The act of throwing someone out of a window.",
	"ombudsmen":                                     "Officials appointed to investigate individuals' complaints against maladministration.",
	"syzygy":                                        "A conjunction or opposition, especially of the moon with the sun.",
	"sphygmomanometer":                              "An instrument for measuring blood pressure.",
	"xenotransplantation":                           "The process of grafting or transplanting organs or tissues between members of different species.",
	"gobbledygook":                                  "Language that is meaningless or is made unintelligible by excessive use of abstruse technical terms.",
	"schadenfreude":                                 "Pleasure derived by someone from another person's misfortune.",
	"doppelganger":                                  "An apparition or double of a living person.",
	"zeitgeist":                                     "The defining spirit or mood of a particular period of history as shown by the ideas and beliefs of the time.",
	"polydactyly":                                   "A condition in which a person or animal has more than five fingers or toes on one, or on each, hand or foot.",
	"idiosyncratic":                                 "Relating to idiosyncrasy; peculiar or individual.",
	"onomatopoeia":                                  "The formation of a word from a sound associated with what is named.",
	"miscellaneous":                                 "Of various types or from different sources.",
	"bureaucracy":                                   "A system of government in which most of the important decisions are made by state officials rather than by elected representatives.",
	"bourgeoisie":                                   "The middle class, typically with reference to its perceived materialistic values or conventional attitudes.",
	"anachronistic":                                 "Belonging to a period other than that being portrayed.",
	"pulchritudinous":                               "Beautiful.",
	"pusillanimous":                                 "Showing a lack of courage or determination; timid.",
	"ubiquitous":                                    "Present, appearing, or found everywhere.",
	"surveillance":                                  "Close observation, especially of a suspected spy or criminal.",
	"phenomenon":                                    "A fact or situation that is observed to exist or happen, especially one whose cause or explanation is in question.",
	"lieutenant":                                    "A deputy or substitute acting for a superior.",
	"colonel":                                       "An army officer of high rank, in particular an officer above a lieutenant colonel and below a brigadier.",
	"worcestershire":                                "A county in west central England; also a savory sauce.",
	"queue":                                         "A line or sequence of people or vehicles awaiting their turn to be attended to or to proceed.",
	"quinoa":                                        "A grain crop grown primarily for its edible seeds.",
	"site":                                          "An area of ground on which a town, building, or monument is constructed.",
	"cite":                                          "Quote (a passage, book, or author) as evidence for or justification of an argument or statement.",
}

type dictionaryEntry struct {
	Meanings []struct {
		Definitions []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Definitions resolves a short definition for a word. Lookups never fail:
// anything that goes wrong yields FallbackDefinition.
type Definitions struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewDefinitions(baseURL string, rps float64) *Definitions {
	if rps <= 0 {
		rps = 1
	}
	return &Definitions{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (d *Definitions) Lookup(ctx context.Context, word string) string {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return FallbackDefinition
	}
	if def, ok := localDefinitions[key]; ok {
		return def
	}
	if d == nil || d.baseURL == "" {
		return FallbackDefinition
	}
	def, err := d.fetch(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("word", key).Msg("definition lookup failed")
		return FallbackDefinition
	}
	return def
}

func (d *Definitions) fetch(ctx context.Context, word string) (string, error) {
	if !d.limiter.Allow() {
		return "", fmt.Errorf("dictionary rate limited")
	}
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, d.baseURL+url.PathEscape(word), nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("dictionary request failed (%d)", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var entries []dictionaryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 || len(entries[0].Meanings) == 0 || len(entries[0].Meanings[0].Definitions) == 0 {
		return "", fmt.Errorf("no definition for %q", word)
	}
	def := strings.TrimSpace(entries[0].Meanings[0].Definitions[0].Definition)
	if def == "" {
		return "", fmt.Errorf("empty definition for %q", word)
	}
	return def, nil
}
