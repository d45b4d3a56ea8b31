package handler

import "encoding/json"

// Block Kit shapes for the two modals and the app home view. Block and
// action ids here must match what the interaction handler reads back out of
// the submission payload.
const (
	CallbackAddSkills  = "add_skills_modal"
	CallbackFindSkills = "find_skills_modal"

	blockSkills    = "skills_input"
	actionSkills   = "skills_select"
	blockNewSkill  = "new_skill_input"
	actionNewSkill = "new_skill_input"
)

type plainText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func text(s string) plainText {
	return plainText{Type: "plain_text", Text: s}
}

type option struct {
	Text  plainText `json:"text"`
	Value string    `json:"value"`
}

type selectElement struct {
	Type           string    `json:"type"`
	ActionID       string    `json:"action_id"`
	Placeholder    plainText `json:"placeholder"`
	Options        []option  `json:"options"`
	InitialOptions []option  `json:"initial_options,omitempty"`
}

type textInputElement struct {
	Type        string    `json:"type"`
	ActionID    string    `json:"action_id"`
	Placeholder plainText `json:"placeholder"`
}

type inputBlock struct {
	Type     string    `json:"type"`
	BlockID  string    `json:"block_id"`
	Element  any       `json:"element"`
	Optional bool      `json:"optional,omitempty"`
	Label    plainText `json:"label"`
}

type sectionBlock struct {
	Type string `json:"type"`
	Text struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"text"`
}

type modalView struct {
	Type       string     `json:"type"`
	CallbackID string     `json:"callback_id"`
	Title      plainText  `json:"title"`
	Submit     *plainText `json:"submit,omitempty"`
	Blocks     []any      `json:"blocks"`
}

func submit(s string) *plainText {
	t := text(s)
	return &t
}

func skillOptions(names []string) []option {
	out := make([]option, 0, len(names))
	for _, n := range names {
		out = append(out, option{Text: text(n), Value: n})
	}
	return out
}

func buildAddSkillsModal(allSkills []string, preselected []string) (json.RawMessage, error) {
	blocks := make([]any, 0, 2)
	// A static select with zero options is rejected by the platform, so a
	// fresh workspace gets only the free-text input until a skill exists.
	if len(allSkills) > 0 {
		blocks = append(blocks, inputBlock{
			Type:    "input",
			BlockID: blockSkills,
			Element: selectElement{
				Type:           "multi_static_select",
				ActionID:       actionSkills,
				Placeholder:    text("Select or add skills"),
				Options:        skillOptions(allSkills),
				InitialOptions: skillOptions(preselected),
			},
			Optional: true,
			Label:    text("Skills"),
		})
	}
	blocks = append(blocks, inputBlock{
		Type:    "input",
		BlockID: blockNewSkill,
		Element: textInputElement{
			Type:        "plain_text_input",
			ActionID:    actionNewSkill,
			Placeholder: text("Enter a new skill"),
		},
		Optional: true,
		Label:    text("New Skill"),
	})

	view := modalView{
		Type:       "modal",
		CallbackID: CallbackAddSkills,
		Title:      text("Add Skills"),
		Submit:     submit("Submit"),
		Blocks:     blocks,
	}
	return json.Marshal(view)
}

func buildFindSkillsModal(allSkills []string) (json.RawMessage, error) {
	if len(allSkills) == 0 {
		var section sectionBlock
		section.Type = "section"
		section.Text.Type = "mrkdwn"
		section.Text.Text = "No skills have been declared yet. Use /add-skills to add the first one."

		view := modalView{
			Type:       "modal",
			CallbackID: CallbackFindSkills,
			Title:      text("Find Skills"),
			Blocks:     []any{section},
		}
		return json.Marshal(view)
	}

	view := modalView{
		Type:       "modal",
		CallbackID: CallbackFindSkills,
		Title:      text("Find Skills"),
		Submit:     submit("Submit"),
		Blocks: []any{
			inputBlock{
				Type:    "input",
				BlockID: blockSkills,
				Element: selectElement{
					Type:        "static_select",
					ActionID:    actionSkills,
					Placeholder: text("Select a skill"),
					Options:     skillOptions(allSkills),
				},
				Label: text("Skill"),
			},
		},
	}
	return json.Marshal(view)
}

func buildHomeView() (json.RawMessage, error) {
	var section sectionBlock
	section.Type = "section"
	section.Text.Type = "mrkdwn"
	section.Text.Text = "Welcome to the skills directory! Use /add-skills to declare yours and /find-skills to see who knows what."

	view := struct {
		Type   string `json:"type"`
		Blocks []any  `json:"blocks"`
	}{
		Type:   "home",
		Blocks: []any{section},
	}
	return json.Marshal(view)
}
