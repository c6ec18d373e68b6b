package tally

// Mapping translates logical attribute names to provider question keys for
// one form. One provider key per logical name; lookups are exact-match only.
// These tables are the single source of truth for the translation and change
// only when the form itself is edited in the provider's builder.
type Mapping map[string]string

// Logical field names shared across the three form mappings.
const (
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldGraduationYear = "graduation_year"
	FieldSport          = "sport"
	FieldPosition       = "position"
	FieldNeedsPoster    = "needs_poster"
	FieldInstagram      = "instagram_handle"
	FieldGPA            = "gpa"
	FieldSATScore       = "sat_score"
	FieldHeight         = "height"
	FieldWeight         = "weight"
	FieldBudget         = "budget"
	FieldHighlightVideo = "highlight_video_url"
	FieldDivisions      = "target_divisions"
	FieldRegions        = "preferred_regions"
	FieldAthleteID      = "athlete_id"
	FieldPosterFile     = "poster_file"
)

// KickoffMapping covers the kickoff form that creates the athlete record.
var KickoffMapping = Mapping{
	FieldFirstName:      "question_mKkO1P",
	FieldLastName:       "question_wad9YX",
	FieldEmail:          "question_mRxkE2",
	FieldPhone:          "question_wkGNLz",
	FieldGraduationYear: "question_nWoJ5A",
	FieldSport:          "question_3jlq0b",
	FieldPosition:       "question_nGRzxp",
	FieldNeedsPoster:    "question_mBv8dE",
	FieldInstagram:      "question_wAEGkY",
}

// OnboardingMapping covers the longer onboarding form that enriches the
// record created by kickoff.
var OnboardingMapping = Mapping{
	FieldGPA:            "question_mYbWzX",
	FieldSATScore:       "question_wbLzQ4",
	FieldHeight:         "question_3XKk2R",
	FieldWeight:         "question_nrdVY7",
	FieldBudget:         "question_w2PeXB",
	FieldHighlightVideo: "question_mVKNlJ",
	FieldDivisions:      "question_waYvDA",
	FieldRegions:        "question_m6Rz5Q",
}

// PosterMapping covers the poster upload form. athlete_id arrives as a
// hidden field populated by the redirect URL that led the athlete here.
var PosterMapping = Mapping{
	FieldAthleteID:  "question_poAId0",
	FieldPosterFile: "question_poFil3",
}
