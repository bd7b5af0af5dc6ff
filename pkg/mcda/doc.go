// Package mcda ranks decision-matrix rows for coral seeding and shading.
//
// # Scoring
//
// [Rank] picks the criteria of the chosen [Intervention], L2-normalizes each
// column over the candidate rows ([Normalize]) and L2-normalizes the weights
// ([NormalizeVec]). Each weight is multiplied by its criterion direction, so
// cost criteria such as wave damage carry a negative weight. One of the
// [Algorithm] variants then turns the matrix and weights into one score per
// row, higher being better:
//
//   - [OrderRanking]: weighted sum
//   - [AdjustedTOPSIS]: relative closeness to the ideal and anti-ideal rows
//   - [VIKOR]: compromise ranking with v = 0.5, scored as 1 - Q
//
// # Selection
//
// Selection is sequential. Each step takes the best remaining row (ties go
// to the lowest site index), assigns it the next rank and removes it from the
// candidate set. With a minimum distance configured, every row closer than
// that distance to the pick is removed as well. Algorithms whose scores depend
// on the other candidates ([Scorer.Relative]) are re-normalized and re-scored
// over what remains before the next pick.
//
// Sites that are never picked, whether excluded, filtered out by the decision
// matrix or simply outranked, receive [Result.Sentinel], which is the number
// of sites in the pre-filter ordering plus one.
package mcda
