package components

// Built-in component names.
const (
	ComponentLayout       = "layout"
	ComponentLinkCard     = "link-card"
	ComponentLinkForm     = "link-form"
	ComponentDeleteButton = "delete-button"
)

// RegisterDefaults installs the built-in component set. It is safe to call
// more than once: already-registered names keep their existing templates.
func RegisterDefaults(r *Registry) error {
	defaults := []struct {
		name string
		src  string
	}{
		{ComponentLayout, layoutHTML},
		{ComponentLinkCard, linkCardHTML},
		{ComponentLinkForm, linkFormHTML},
		{ComponentDeleteButton, deleteButtonHTML},
	}
	for _, d := range defaults {
		if _, err := r.Register(d.name, d.src); err != nil {
			return err
		}
	}
	return nil
}

const layoutHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
h1 { font-size: 1.4rem; }
.link-card { border: 1px solid #ddd; border-radius: 6px; padding: .8rem 1rem; margin: .6rem 0; }
.link-card h2 { font-size: 1rem; margin: 0 0 .2rem; }
.link-card p { margin: .2rem 0; color: #555; font-size: .9rem; }
.link-card form { display: inline; }
.link-form label { display: block; margin: .5rem 0 .1rem; font-size: .9rem; }
.link-form input { width: 100%; padding: .3rem; }
button { cursor: pointer; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.Body}}
</body>
</html>`

const linkCardHTML = `<article class="link-card" id="link-{{.Key}}">
<h2><a href="{{.URL}}" rel="noopener">{{.Title}}</a></h2>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .ShowControls}}{{template "delete-button" .}}{{end}}
</article>`

const linkFormHTML = `<form class="link-form" action="/links" method="post">
<label for="url">URL</label>
<input id="url" name="url" type="url" required placeholder="https://example.com">
<label for="title">Title</label>
<input id="title" name="title" type="text" placeholder="Fetched from the page when empty">
<label for="description">Description</label>
<input id="description" name="description" type="text">
<button type="submit">Add link</button>
</form>`

const deleteButtonHTML = `<form action="{{.DeleteForm.Action}}" method="{{.DeleteForm.Method}}">
<button type="submit" data-key="{{.Key}}">Delete</button>
</form>`
