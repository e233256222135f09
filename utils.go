package bracket

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/justinjudd/bracket/models"
	"github.com/justinjudd/bracket/tournament"
)

// Page is everything needed to render one view of a session
type Page struct {
	State  tournament.State
	Prompt string
}

func (p Page) Setup() bool {
	return p.State.Phase() == models.Phase_SETUP
}

func (p Page) Finished() bool {
	return p.State.Phase() == models.Phase_FINISHED
}

func (p Page) RoundComplete() bool {
	return p.State.Phase() == models.Phase_ROUND_COMPLETE
}

func pageFuncs(s tournament.State) map[string]interface{} {
	return map[string]interface{}{
		"winner": func(slot models.Slot) bool {
			if models.IsByeSlot(slot) {
				return false
			}
			return s.IsWinner(*slot.Team)
		},
		"isBye": models.IsByeSlot,
		"champion": func() string {
			t, ok := s.Champion()
			if !ok {
				return ""
			}
			return t.Label()
		},
		"inc": func(n int) int {
			return n + 1
		},
		"sizes": func() []models.TeamSize {
			return models.TeamSizes
		},
		"title": cases.Title(language.English).String,
	}
}

const sessionHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Tournament Bracket</title></head>
<body>
<h1>Tournament Bracket</h1>
{{- $state := .State }}
{{ if .Prompt }}<p class="prompt" role="alert">{{.Prompt}}</p>{{ end }}
{{ if .Setup }}
<form method="post" action="/participants">
    <input type="text" name="name" placeholder="Enter player name" autofocus>
    <button type="submit">Add Player</button>
</form>
<form method="post" action="/team-size">
    <label for="teamSize">Players per team:</label>
    <select id="teamSize" name="size" onchange="this.form.submit()">
    {{- range sizes }}
        <option value="{{printf "%d" .}}"{{if eq . $state.TeamSize}} selected{{end}}>{{title .String}}</option>
    {{- end }}
    </select>
    <noscript><button type="submit">Set</button></noscript>
</form>
<form method="post" action="/start">
    <button type="submit"{{if not $state.CanStart}} disabled{{end}}>Start Tournament</button>
</form>
{{ if $state.ErrorMessage }}<p class="error">{{$state.ErrorMessage}}</p>{{ end }}
<ul>
{{- range $i, $name := $state.Participants }}
    <li>{{$name}} <form method="post" action="/participants/{{$i}}/remove" style="display:inline"><button type="submit">Remove</button></form></li>
{{- end }}
</ul>
{{ else }}
<h2>Round {{$state.Round}}</h2>
{{- range $i, $match := $state.Matches }}
<div class="match">
    <p>{{$match.Home.Label}} vs {{$match.Away.Label}}</p>
    <form method="post" action="/matches/{{$i}}/winner/home" style="display:inline">
        <button type="submit" class="{{if winner $match.Home}}selected{{end}}">Winner: {{$match.Home.Label}}</button>
    </form>
    {{- if not (isBye $match.Away) }}
    <form method="post" action="/matches/{{$i}}/winner/away" style="display:inline">
        <button type="submit" class="{{if winner $match.Away}}selected{{end}}">Winner: {{$match.Away.Label}}</button>
    </form>
    {{- end }}
</div>
{{- end }}
{{ if .Finished }}
<h3>The winner is: {{champion}}</h3>
{{ else }}
<form method="post" action="/next">
    <button type="submit"{{if not .RoundComplete}} disabled{{end}}>Start Next Round</button>
</form>
{{ end }}
<form method="post" action="/reset">
    <button type="submit">Reset Tournament</button>
</form>
{{ end }}
</body>
</html>
`

// GenerateSessionHTML renders the single-screen page for a session
func GenerateSessionHTML(p Page) ([]byte, error) {
	tmpl, err := htmltemplate.New("session").Funcs(pageFuncs(p.State)).Parse(sessionHTML)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, p)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

const sessionText = `
{{- $state := .State -}}
{{ if .Prompt }}! {{.Prompt}}
{{ end -}}
{{ if .Setup -}}
Players per team: {{$state.TeamSize}}
{{- range $i, $name := $state.Participants }}
  {{inc $i}}. {{$name}}
{{- else }}
  (no players yet)
{{- end }}
{{ if $state.ErrorMessage }}{{$state.ErrorMessage}}
{{ end -}}
{{ else -}}
Round {{$state.Round}}
{{- range $i, $match := $state.Matches }}
  Match {{inc $i}}: {{if winner $match.Home}}*{{end}}{{$match.Home.Label}} vs {{if winner $match.Away}}*{{end}}{{$match.Away.Label}}
{{- end }}
{{ if .Finished }}The winner is: {{champion}}
{{ else if .RoundComplete }}Every match has a winner, type "next" to continue.
{{ end -}}
{{ end -}}
`

// GenerateSessionText renders a session for a terminal. Selected winners are marked with *
func GenerateSessionText(p Page) ([]byte, error) {
	tmpl, err := texttemplate.New("session").Funcs(pageFuncs(p.State)).Parse(sessionText)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, p)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
