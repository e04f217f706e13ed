package mcpserver

// EntryFormatContract describes the Markdown document format accepted by the
// create_entry tool and the inbox importer.
const EntryFormatContract = `# Dagaz Entry Format

A journal entry is one Markdown document per calendar day.

## Structure

` + "```" + `markdown
---
date: 2025-01-15                  # REQUIRED – YYYY-MM-DD, one entry per day
title: Quiet Wednesday            # OPTIONAL – defaults to the first "# " heading, then the long date
mood: Calm                        # REQUIRED – one of the moods from list_moods
secondary_moods: [Grateful]       # OPTIONAL – at most two more moods
tags: [Family, Reading]           # OPTIONAL – list or comma-separated; unknown tags are created
category: home                    # OPTIONAL – free text, up to 200 characters
---

Body text in standard Markdown. Inline #tags are added to the tag list.
` + "```" + `

## Rules

1. **One entry per day.** Creating a second entry for a date that already has one fails.
2. **` + "`" + `mood` + "`" + ` must name an existing mood** (case-insensitive). Call ` + "`" + `list_moods` + "`" + ` first.
3. **Title** is at most 500 characters. The body must not be empty.
4. **Tags** match existing tags case-insensitively; new names become user tags.
5. **Encoding** is UTF-8.

## Example

` + "```" + `markdown
---
date: 2025-01-20
mood: Happy
secondary_moods: Excited
tags: [Work, Projects]
---

# Launch day

Shipped the new release with the team. #Celebration
` + "```" + `
`
