package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "Beginner"
	ProficiencyIntermediate ProficiencyLevel = "Intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "Advanced"
	ProficiencyFluent       ProficiencyLevel = "Fluent"
)

func (p ProficiencyLevel) Valid() bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyFluent:
		return true
	}
	return false
}

const (
	DefaultLocation       = "Not specified"
	DefaultProfilePicture = "https://example.com/default-profile.png"
)

// RelationField names one of the account-id sets stored on a Profile.
type RelationField string

const (
	FieldFollowing RelationField = "following"
	FieldFollowers RelationField = "followers"
	FieldBlocked   RelationField = "blocked"
)

type Profile struct {
	ID          string    `json:"_id" bson:"_id"`
	AccountID   string    `json:"user" bson:"user"`
	Name        string    `json:"name" bson:"name"`
	TandemID    string    `json:"tandemID" bson:"tandem_id"`
	DateOfBirth time.Time `json:"dateOfBirth" bson:"date_of_birth"`
	Location    string    `json:"location" bson:"location"`

	NativeLanguage    string `json:"nativeLanguage,omitempty" bson:"native_language,omitempty"`
	FluentLanguage    string `json:"fluentLanguage,omitempty" bson:"fluent_language,omitempty"`
	LearningLanguage  string `json:"learningLanguage,omitempty" bson:"learning_language,omitempty"`
	TranslateLanguage string `json:"translateLanguage,omitempty" bson:"translate_language,omitempty"`

	Communication        string `json:"communication,omitempty" bson:"communication,omitempty"`
	TimeCommitment       string `json:"timeCommitment,omitempty" bson:"time_commitment,omitempty"`
	LearningSchedule     string `json:"learningSchedule,omitempty" bson:"learning_schedule,omitempty"`
	CorrectionPreference string `json:"correctionPreference,omitempty" bson:"correction_preference,omitempty"`

	About             string `json:"about,omitempty" bson:"about,omitempty"`
	PartnerPreference string `json:"partnerPreference,omitempty" bson:"partner_preference,omitempty"`
	LearningGoals     string `json:"learningGoals,omitempty" bson:"learning_goals,omitempty"`

	ShowLocation bool `json:"showLocation" bson:"show_location"`
	ShowTandemID bool `json:"showTandemID" bson:"show_tandem_id"`

	Following []string `json:"following" bson:"following"`
	Followers []string `json:"followers" bson:"followers"`
	Blocked   []string `json:"blocked" bson:"blocked"`
	Topics    []string `json:"topics" bson:"topics"`

	Language         string           `json:"language,omitempty" bson:"language,omitempty"`
	ProficiencyLevel ProficiencyLevel `json:"proficiencyLevel" bson:"proficiency_level"`

	NotificationsEnabled bool   `json:"notificationsEnabled" bson:"notifications_enabled"`
	ProfilePicture       string `json:"profilePicture" bson:"profile_picture"`
	Role                 Role   `json:"role" bson:"role"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NewProfile returns a Profile carrying the defaults every new document starts with.
func NewProfile(id, accountID string) *Profile {
	return &Profile{
		ID:                   id,
		AccountID:            accountID,
		Location:             DefaultLocation,
		ShowLocation:         true,
		ShowTandemID:         true,
		Following:            []string{},
		Followers:            []string{},
		Blocked:              []string{},
		Topics:               []string{},
		ProficiencyLevel:     ProficiencyBeginner,
		NotificationsEnabled: true,
		ProfilePicture:       DefaultProfilePicture,
		Role:                 RoleUser,
	}
}

// Relation returns the set stored under field.
func (p *Profile) Relation(field RelationField) []string {
	switch field {
	case FieldFollowing:
		return p.Following
	case FieldFollowers:
		return p.Followers
	case FieldBlocked:
		return p.Blocked
	}
	return nil
}

// SetRelation replaces the set stored under field.
func (p *Profile) SetRelation(field RelationField, ids []string) {
	switch field {
	case FieldFollowing:
		p.Following = ids
	case FieldFollowers:
		p.Followers = ids
	case FieldBlocked:
		p.Blocked = ids
	}
}

// ProfileView is a Profile with its owning account populated.
type ProfileView struct {
	*Profile
	User AccountSummary `json:"user"`
}
