package repositories

import (
	"fmt"
	"time"

	"tandem-server/models"
)

// profileField reads or copies one patchable Profile setting.
type profileField struct {
	value func(p *models.Profile) any
	copy  func(dst, src *models.Profile)
}

func settingField[T any](ref func(p *models.Profile) *T) profileField {
	return profileField{
		value: func(p *models.Profile) any { return *ref(p) },
		copy:  func(dst, src *models.Profile) { *ref(dst) = *ref(src) },
	}
}

// profileSettings is keyed by bson field name. Relationship sets, the picture
// and the owner are written through their own store methods and are absent.
var profileSettings = map[string]profileField{
	"name":                  settingField(func(p *models.Profile) *string { return &p.Name }),
	"tandem_id":             settingField(func(p *models.Profile) *string { return &p.TandemID }),
	"date_of_birth":         settingField(func(p *models.Profile) *time.Time { return &p.DateOfBirth }),
	"location":              settingField(func(p *models.Profile) *string { return &p.Location }),
	"about":                 settingField(func(p *models.Profile) *string { return &p.About }),
	"partner_preference":    settingField(func(p *models.Profile) *string { return &p.PartnerPreference }),
	"learning_goals":        settingField(func(p *models.Profile) *string { return &p.LearningGoals }),
	"native_language":       settingField(func(p *models.Profile) *string { return &p.NativeLanguage }),
	"fluent_language":       settingField(func(p *models.Profile) *string { return &p.FluentLanguage }),
	"learning_language":     settingField(func(p *models.Profile) *string { return &p.LearningLanguage }),
	"translate_language":    settingField(func(p *models.Profile) *string { return &p.TranslateLanguage }),
	"communication":         settingField(func(p *models.Profile) *string { return &p.Communication }),
	"time_commitment":       settingField(func(p *models.Profile) *string { return &p.TimeCommitment }),
	"learning_schedule":     settingField(func(p *models.Profile) *string { return &p.LearningSchedule }),
	"correction_preference": settingField(func(p *models.Profile) *string { return &p.CorrectionPreference }),
	"language":              settingField(func(p *models.Profile) *string { return &p.Language }),
	"proficiency_level":     settingField(func(p *models.Profile) *models.ProficiencyLevel { return &p.ProficiencyLevel }),
	"topics":                settingField(func(p *models.Profile) *[]string { return &p.Topics }),
	"show_location":         settingField(func(p *models.Profile) *bool { return &p.ShowLocation }),
	"show_tandem_id":        settingField(func(p *models.Profile) *bool { return &p.ShowTandemID }),
	"notifications_enabled": settingField(func(p *models.Profile) *bool { return &p.NotificationsEnabled }),
}

// settingsUpdate returns the $set document for fields of profile.
func settingsUpdate(profile *models.Profile, fields []string) (map[string]any, error) {
	set := make(map[string]any, len(fields))
	for _, name := range fields {
		f, ok := profileSettings[name]
		if !ok {
			return nil, fmt.Errorf("profile field %q cannot be patched", name)
		}
		set[name] = f.value(profile)
	}
	return set, nil
}

// copySettings copies fields from src onto dst.
func copySettings(dst, src *models.Profile, fields []string) error {
	for _, name := range fields {
		f, ok := profileSettings[name]
		if !ok {
			return fmt.Errorf("profile field %q cannot be patched", name)
		}
		f.copy(dst, src)
	}
	return nil
}
