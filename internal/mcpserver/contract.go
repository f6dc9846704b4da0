package mcpserver

// NoteFormatContract describes the Markdown written for each video and for
// each playlist index, so LLM consumers can parse notes reliably.
const NoteFormatContract = `# tubenotes Note Format Contract (note_format: 1)

tubenotes writes one note per video under ` + "`" + `videos/` + "`" + ` and one index note per
playlist at the root of the notes directory. Notes are rewritten only by a sync run;
hand edits are overwritten when the video is refreshed with ` + "`" + `force` + "`" + `.

## Video note

` + "```" + `markdown
---
id: dQw4w9WgXcQ                     # REQUIRED – 11-character video ID, the note identity
title: Never Gonna Give You Up      # REQUIRED
channel: Rick Astley                # OPTIONAL – omitted when unknown
media_link: https://www.youtube.com/watch?v=dQw4w9WgXcQ
published: 2009-10-25T06:57:33Z     # OPTIONAL – RFC 3339
duration: 3:32                      # OPTIONAL – H:MM:SS from one hour up, else M:SS
thumbnail: https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg
tags:                               # OPTIONAL – sorted, de-duplicated
  - music
note_format: 1
---

# Never Gonna Give You Up

![thumbnail](https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg)

- Channel: Rick Astley
- Duration: 3:32
- Published: 2009-10-25
- Link: https://www.youtube.com/watch?v=dQw4w9WgXcQ
` + "```" + `

## Rules

1. **Frontmatter keys appear in the order above.** Unknown optional fields are omitted,
   never written as empty values.
2. **` + "`" + `id` + "`" + ` is the identity.** The file name is ` + "`" + `<title> - <id>.md` + "`" + ` and is fixed
   when the note is first written; a later title change does not rename it.
3. **File names** drop ` + "`" + `\ / * ? : " < > | # ^ [ ]` + "`" + ` and are capped at 100 characters.
4. **Durations** in the header and body use ` + "`" + `H:MM:SS` + "`" + ` from one hour up and ` + "`" + `M:SS` + "`" + ` below.
5. **Encoding** is UTF-8 with a trailing newline.

## Index note

` + "```" + `markdown
---
title: My Playlist
playlist: PLxxxxxxxx
source: https://www.youtube.com/playlist?list=PLxxxxxxxx
note_format: 1
---

# My Playlist

| # | Thumbnail | Title & Duration |
|---|-----------|------------------|
| 1 | ![](https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg) | [[videos/Never Gonna Give You Up - dQw4w9WgXcQ\|Never Gonna Give You Up]]<br>⏱ 3:32 |
` + "```" + `

Rows follow playlist order. Only videos with a note are listed; failed videos are not.
Unknown durations show as ` + "`" + `N/A` + "`" + `.
`
