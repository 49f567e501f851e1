package domain

// Categories holds the named safety category flags of a moderation result.
// Once a flag is set for a message it never clears again; Merge enforces
// that. BannedWord records the wordlist entry matched by the local
// pre-filter, if any.
type Categories struct {
	Harassment          bool   `json:"harassment"`
	HarassmentThreat    bool   `json:"harassment_threat"`
	Sexual              bool   `json:"sexual"`
	Hate                bool   `json:"hate"`
	HateThreat          bool   `json:"hate_threat"`
	Illicit             bool   `json:"illicit"`
	IllicitViolent      bool   `json:"illicit_violent"`
	SelfHarmIntent      bool   `json:"self_harm_intent"`
	SelfHarmInstruction bool   `json:"self_harm_instruction"`
	SelfHarm            bool   `json:"self_harm"`
	SexualMinors        bool   `json:"sexual_minors"`
	Violence            bool   `json:"violence"`
	ViolenceGraphic     bool   `json:"violence_graphic"`
	BannedWord          string `json:"banned_word,omitempty"`
}

// Any reports whether any category flag is set or a banned word matched.
func (c Categories) Any() bool {
	return c.Harassment || c.HarassmentThreat || c.Sexual || c.Hate ||
		c.HateThreat || c.Illicit || c.IllicitViolent || c.SelfHarmIntent ||
		c.SelfHarmInstruction || c.SelfHarm || c.SexualMinors || c.Violence ||
		c.ViolenceGraphic || c.BannedWord != ""
}

// Merge folds a later classification pass into c. Category flags only ever
// transition false to true. BannedWord keeps the first match; a later pass
// may set it only while it is unset.
func (c *Categories) Merge(o Categories) {
	c.Harassment = c.Harassment || o.Harassment
	c.HarassmentThreat = c.HarassmentThreat || o.HarassmentThreat
	c.Sexual = c.Sexual || o.Sexual
	c.Hate = c.Hate || o.Hate
	c.HateThreat = c.HateThreat || o.HateThreat
	c.Illicit = c.Illicit || o.Illicit
	c.IllicitViolent = c.IllicitViolent || o.IllicitViolent
	c.SelfHarmIntent = c.SelfHarmIntent || o.SelfHarmIntent
	c.SelfHarmInstruction = c.SelfHarmInstruction || o.SelfHarmInstruction
	c.SelfHarm = c.SelfHarm || o.SelfHarm
	c.SexualMinors = c.SexualMinors || o.SexualMinors
	c.Violence = c.Violence || o.Violence
	c.ViolenceGraphic = c.ViolenceGraphic || o.ViolenceGraphic
	if c.BannedWord == "" {
		c.BannedWord = o.BannedWord
	}
}

// CategoriesFromMap maps the remote classifier's category keys onto
// Categories. Keys absent from the map stay false.
func CategoriesFromMap(m map[string]bool) Categories {
	return Categories{
		Harassment:          m["harassment"],
		HarassmentThreat:    m["harassment/threatening"],
		Sexual:              m["sexual"],
		Hate:                m["hate"],
		HateThreat:          m["hate/threatening"],
		Illicit:             m["illicit"],
		IllicitViolent:      m["illicit/violent"],
		SelfHarmIntent:      m["self-harm/intent"],
		SelfHarmInstruction: m["self-harm/instructions"],
		SelfHarm:            m["self-harm"],
		SexualMinors:        m["sexual/minors"],
		Violence:            m["violence"],
		ViolenceGraphic:     m["violence/graphic"],
	}
}

// ModerationResult is the accumulated moderation state of one message.
// Moderated distinguishes "never run" from "run and clean".
type ModerationResult struct {
	Flagged    bool       `json:"flagged"`
	Moderated  bool       `json:"moderated"`
	Categories Categories `json:"categories"`
}

// Merge combines a new classification pass into r. Flags are sticky: no
// sequence of merges can clear a category or Flagged once set, and Flagged
// is re-derived so it never contradicts the merged categories.
func (r *ModerationResult) Merge(o ModerationResult) {
	r.Categories.Merge(o.Categories)
	r.Flagged = r.Flagged || o.Flagged || r.Categories.Any()
	r.Moderated = r.Moderated || o.Moderated
}
