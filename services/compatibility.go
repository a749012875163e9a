package services

import (
	"strings"

	"mingle_server/models"
	"mingle_server/utils"
)

// CompatibilityResult carries the outcome of scoring two candidates. When
// Compatible is false the pair must never be proposed.
type CompatibilityResult struct {
	Compatible      bool     `json:"compatible"`
	Score           float64  `json:"score"` // 0-100
	SharedInterests []string `json:"sharedInterests"`
}

// CompatibilityScorer decides whether two candidates can be paired and how
// well they fit. It is a pure function of the two snapshots; the only
// configuration is the extended-identity gender set.
type CompatibilityScorer struct {
	extendedGenders map[string]struct{}
}

// NewCompatibilityScorer builds a scorer with the configured
// extended-identity gender categories (matched symmetrically among
// themselves for the romantic category, never against binary genders).
func NewCompatibilityScorer(extendedGenders []string) *CompatibilityScorer {
	set := map[string]struct{}{}
	for _, g := range extendedGenders {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			set[g] = struct{}{}
		}
	}
	return &CompatibilityScorer{extendedGenders: set}
}

// Score evaluates the pair. It returns an error only for a missing identity;
// malformed optional criteria never fail, they simply score as incompatible
// or are ignored.
func (s *CompatibilityScorer) Score(a, b models.Candidate) (CompatibilityResult, error) {
	if a.UserID == "" || b.UserID == "" {
		return CompatibilityResult{}, ErrMissingIdentity
	}

	incompatible := CompatibilityResult{}

	// Both sides must be seeking the same relationship category.
	category := strings.ToLower(a.Criteria.Category)
	if category == "" || category != strings.ToLower(b.Criteria.Category) {
		return incompatible, nil
	}

	if !s.gendersCompatible(category, a.Profile.Gender, b.Profile.Gender) {
		return incompatible, nil
	}

	tagsA := utils.NormalizeTags(a.Profile.Interests)
	tagsB := utils.NormalizeTags(b.Profile.Interests)
	shared := utils.IntersectTags(tagsA, tagsB)
	if len(shared) == 0 {
		return incompatible, nil
	}

	overlapA := float64(len(shared)) / float64(len(tagsA))
	overlapB := float64(len(shared)) / float64(len(tagsB))
	score := (overlapA + overlapB) / 2 * 100

	return CompatibilityResult{
		Compatible:      true,
		Score:           score,
		SharedInterests: shared,
	}, nil
}

// gendersCompatible applies the gender policy. The platonic category accepts
// any pairing; the romantic category accepts cross-binary pairs or pairs
// where both sides belong to the extended-identity set. An unset gender is
// never matchable.
func (s *CompatibilityScorer) gendersCompatible(category, genderA, genderB string) bool {
	genderA = strings.ToLower(strings.TrimSpace(genderA))
	genderB = strings.ToLower(strings.TrimSpace(genderB))
	if genderA == "" || genderB == "" {
		return false
	}

	if category == models.CategoryPlatonic {
		return true
	}

	crossBinary := (genderA == models.GenderMale && genderB == models.GenderFemale) ||
		(genderA == models.GenderFemale && genderB == models.GenderMale)
	if crossBinary {
		return true
	}

	_, extA := s.extendedGenders[genderA]
	_, extB := s.extendedGenders[genderB]
	return extA && extB
}

// CounterpartGenderFor returns the gender policy a synthetic counterpart
// must satisfy to be compatible with the given candidate.
func (s *CompatibilityScorer) CounterpartGenderFor(gender, category string) string {
	if strings.ToLower(category) == models.CategoryPlatonic {
		return "any"
	}
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case models.GenderMale:
		return models.GenderFemale
	case models.GenderFemale:
		return models.GenderMale
	default:
		if _, ok := s.extendedGenders[strings.ToLower(strings.TrimSpace(gender))]; ok {
			return "extended"
		}
		return "any"
	}
}
