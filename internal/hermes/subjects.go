package hermes

const (
	SubjectOrphansPurged   = "assay.scores.orphans.purged"
	SubjectCriteriaDeleted = "assay.criterion.*.deleted"

	// SubjectScoreUpserted carries every recorded cell. Module subject ids are
	// opaque upstream strings and only travel in the payload.
	SubjectScoreUpserted = "assay.scores.upserted"
)

// Criterion lifecycle subjects. Criterion ids are UUIDs, which are always
// valid single tokens.
func SubjectCriterionCreated(criterionID string) string { return "assay.criterion." + criterionID + ".created" }
func SubjectCriterionUpdated(criterionID string) string { return "assay.criterion." + criterionID + ".updated" }
func SubjectCriterionDeleted(criterionID string) string { return "assay.criterion." + criterionID + ".deleted" }
