package models

import (
	"strings"
	"time"

	"tandem-server/utils/errors"
)

// ProfileUpdate is a sparse patch for PUT /api/profile/update. Absent fields are
// left untouched, explicit nulls reset optional fields to their defaults and
// are rejected for required ones.
type ProfileUpdate struct {
	Name        Optional[string] `json:"name"`
	TandemID    Optional[string] `json:"tandemID"`
	Dob         Optional[string] `json:"dob"`
	DateOfBirth Optional[string] `json:"dateOfBirth"`
	Location    Optional[string] `json:"location"`

	About             Optional[string] `json:"about"`
	PartnerPreference Optional[string] `json:"partnerPreference"`
	LearningGoals     Optional[string] `json:"learningGoals"`

	NativeLanguage    Optional[string] `json:"nativeLanguage"`
	FluentLanguage    Optional[string] `json:"fluentLanguage"`
	LearningLanguage  Optional[string] `json:"learningLanguage"`
	TranslateLanguage Optional[string] `json:"translateLanguage"`

	Communication        Optional[string] `json:"communication"`
	TimeCommitment       Optional[string] `json:"timeCommitment"`
	LearningSchedule     Optional[string] `json:"learningSchedule"`
	CorrectionPreference Optional[string] `json:"correctionPreference"`

	Language         Optional[string]   `json:"language"`
	ProficiencyLevel Optional[string]   `json:"proficiencyLevel"`
	Topics           Optional[[]string] `json:"topics"`

	ShowLocation  Optional[bool] `json:"showLocation"`
	ShowTandemID  Optional[bool] `json:"showTandemID"`
	Notifications Optional[bool] `json:"notifications"`
}

// Fields lists the stored (bson) names of the fields the patch touches.
func (u ProfileUpdate) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(u.Name.Set, "name")
	add(u.TandemID.Set, "tandem_id")
	add(u.Dob.Set || u.DateOfBirth.Set, "date_of_birth")
	add(u.Location.Set, "location")
	add(u.About.Set, "about")
	add(u.PartnerPreference.Set, "partner_preference")
	add(u.LearningGoals.Set, "learning_goals")
	add(u.NativeLanguage.Set, "native_language")
	add(u.FluentLanguage.Set, "fluent_language")
	add(u.LearningLanguage.Set, "learning_language")
	add(u.TranslateLanguage.Set, "translate_language")
	add(u.Communication.Set, "communication")
	add(u.TimeCommitment.Set, "time_commitment")
	add(u.LearningSchedule.Set, "learning_schedule")
	add(u.CorrectionPreference.Set, "correction_preference")
	add(u.Language.Set, "language")
	add(u.ProficiencyLevel.Set, "proficiency_level")
	add(u.Topics.Set, "topics")
	add(u.ShowLocation.Set, "show_location")
	add(u.ShowTandemID.Set, "show_tandem_id")
	add(u.Notifications.Set, "notifications_enabled")
	return fields
}

// Apply merges the patch into p. p is not modified when an error is returned.
func (u ProfileUpdate) Apply(p *Profile) error {
	next := *p

	if err := required(u.Name, "name", &next.Name); err != nil {
		return err
	}
	if err := required(u.TandemID, "tandemID", &next.TandemID); err != nil {
		return err
	}

	dob := u.Dob
	if !dob.Set {
		dob = u.DateOfBirth
	}
	if dob.Set {
		if dob.Null {
			return errors.WithMessage(errors.ErrInvalidInput, "dob cannot be null")
		}
		t, err := ParseDate(dob.Value)
		if err != nil {
			return err
		}
		next.DateOfBirth = t
	}

	optional(u.Location, &next.Location, DefaultLocation)
	optional(u.About, &next.About, "")
	optional(u.PartnerPreference, &next.PartnerPreference, "")
	optional(u.LearningGoals, &next.LearningGoals, "")
	optional(u.NativeLanguage, &next.NativeLanguage, "")
	optional(u.FluentLanguage, &next.FluentLanguage, "")
	optional(u.LearningLanguage, &next.LearningLanguage, "")
	optional(u.TranslateLanguage, &next.TranslateLanguage, "")
	optional(u.Communication, &next.Communication, "")
	optional(u.TimeCommitment, &next.TimeCommitment, "")
	optional(u.LearningSchedule, &next.LearningSchedule, "")
	optional(u.CorrectionPreference, &next.CorrectionPreference, "")
	optional(u.Language, &next.Language, "")

	if u.ProficiencyLevel.Set {
		level := ProficiencyBeginner
		if !u.ProficiencyLevel.Null {
			level = ProficiencyLevel(u.ProficiencyLevel.Value)
		}
		if !level.Valid() {
			return errors.WithMessage(errors.ErrInvalidInput,
				"proficiencyLevel must be one of Beginner, Intermediate, Advanced, Fluent")
		}
		next.ProficiencyLevel = level
	}

	if u.Topics.Set {
		topics := []string{}
		if !u.Topics.Null {
			topics = append(topics, u.Topics.Value...)
		}
		next.Topics = topics
	}

	optional(u.ShowLocation, &next.ShowLocation, true)
	optional(u.ShowTandemID, &next.ShowTandemID, true)
	optional(u.Notifications, &next.NotificationsEnabled, true)

	*p = next
	return nil
}

func required(o Optional[string], field string, dst *string) error {
	if !o.Set {
		return nil
	}
	if o.Null || strings.TrimSpace(o.Value) == "" {
		return errors.WithMessage(errors.ErrInvalidInput, field+" cannot be empty")
	}
	*dst = strings.TrimSpace(o.Value)
	return nil
}

func optional[T any](o Optional[T], dst *T, def T) {
	switch {
	case !o.Set:
	case o.Null:
		*dst = def
	default:
		*dst = o.Value
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.WithMessage(errors.ErrInvalidInput, "dateOfBirth must be YYYY-MM-DD or RFC 3339")
}
