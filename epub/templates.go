package epub

// Built-in stylesheet templates, selected by the style_template setting.

const styleDefault = `body {
  font-family: Georgia, 'Times New Roman', serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
  text-align: justify;
}

h1, h2, h3, h4, h5, h6 {
  font-family: 'Helvetica Neue', Arial, sans-serif;
  font-weight: bold;
  line-height: 1.2;
  margin-top: 1.5em;
  margin-bottom: 0.5em;
  text-align: left;
}

h1 { font-size: 2em; }
h2 { font-size: 1.75em; }
h3 { font-size: 1.5em; }
h4 { font-size: 1.25em; }

p {
  margin: 0.5em 0 1em 0;
  text-indent: 1.5em;
}

p:first-of-type,
h1 + p, h2 + p, h3 + p, h4 + p, h5 + p, h6 + p {
  text-indent: 0;
}

blockquote {
  margin: 1em 2em;
  font-style: italic;
  border-left: 3px solid #ccc;
  padding-left: 1em;
}

code {
  font-family: 'Courier New', monospace;
  font-size: 0.9em;
  background-color: #f4f4f4;
  padding: 0.1em 0.3em;
}

pre {
  font-family: 'Courier New', monospace;
  font-size: 0.9em;
  background-color: #f4f4f4;
  padding: 1em;
  white-space: pre-wrap;
}

ul, ol {
  margin: 1em 0;
  padding-left: 2em;
}

a {
  color: #0066cc;
  text-decoration: underline;
}

img {
  max-width: 100%;
  height: auto;
  display: block;
  margin: 1em auto;
}
`

const styleMinimal = `body {
  font-family: serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
}

h1, h2, h3, h4, h5, h6 {
  font-family: serif;
  font-weight: normal;
  margin-top: 1.2em;
  margin-bottom: 0.5em;
}

p {
  margin: 0.75em 0;
}

a {
  color: inherit;
  text-decoration: underline;
}

img {
  max-width: 100%;
  height: auto;
  display: block;
  margin: 1em auto;
}
`

const styleModern = `body {
  font-family: 'Merriweather', Georgia, serif;
  font-size: 1em;
  font-weight: 300;
  line-height: 1.8;
  margin: 1.5em;
  color: #333;
  text-align: justify;
  hyphens: auto;
}

h1, h2, h3, h4, h5, h6 {
  font-family: 'Open Sans', 'Helvetica Neue', sans-serif;
  font-weight: 600;
  line-height: 1.3;
  margin-top: 2em;
  margin-bottom: 0.75em;
  color: #111;
  text-align: left;
}

h1 {
  font-size: 2.5em;
  font-weight: 700;
  border-bottom: 2px solid #e0e0e0;
  padding-bottom: 0.3em;
}

h2 { font-size: 2em; }
h3 { font-size: 1.5em; }
h4 { font-size: 1.25em; }

p {
  margin: 1em 0;
}

blockquote {
  margin: 1.5em 0;
  padding: 0.5em 1.5em;
  border-left: 4px solid #0066cc;
  background-color: #f8f9fa;
  font-style: italic;
}

code {
  font-family: 'Fira Code', 'Courier New', monospace;
  font-size: 0.9em;
  background-color: #f1f3f5;
  padding: 0.15em 0.4em;
  border-radius: 3px;
}

pre {
  font-family: 'Fira Code', 'Courier New', monospace;
  font-size: 0.9em;
  background-color: #f1f3f5;
  padding: 1.25em;
  border-radius: 6px;
  white-space: pre-wrap;
}

a {
  color: #0066cc;
  text-decoration: none;
  border-bottom: 1px solid #0066cc;
}

img {
  max-width: 100%;
  height: auto;
  display: block;
  margin: 1.5em auto;
  border-radius: 4px;
}
`

// StyleCSS returns the stylesheet for a template name. Unrecognized names
// fall back to the default template.
func StyleCSS(name string) string {
	switch name {
	case "minimal":
		return styleMinimal
	case "modern":
		return styleModern
	}
	return styleDefault
}

// StyleNames lists the recognized style_template values.
func StyleNames() []string {
	return []string{"default", "minimal", "modern"}
}
