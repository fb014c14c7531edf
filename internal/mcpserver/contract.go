package mcpserver

// ItemFormatContract describes the item shape and collection rules that LLM
// consumers should follow when adding, importing or reordering items.
const ItemFormatContract = `# info-filter Item Format

A collection is a JSON array of items. Array position is the display order.

## Item

` + "```" + `json
{
  "id": "0192f1c4-7c1e-7a31-9c55-1f0e4c2b9a10",
  "url": "https://go.dev/blog/",
  "title": "The Go Blog",
  "category": "learning",
  "note": "read the generics posts",
  "image": "https://go.dev/images/go-logo-blue.svg",
  "platform": "Web",
  "createdAt": "2025-01-15T09:30:00.000Z",
  "pinned": false
}
` + "```" + `

## Rules

1. **id** is opaque and unique. New items get one assigned; never invent ids.
2. **url** is required. **title** defaults to the url when empty.
3. **category** is one of ` + "`read_later`, `learning`, `inspiration`, `entertainment`" + `.
   Unknown values are kept as-is. Empty means ` + "`read_later`" + `.
4. **platform** is derived from the url when the item is added
   (twitter.com or x.com gives Twitter, youtube.com or youtu.be gives YouTube, anything else Web)
   and never recomputed.
5. **createdAt** is an ISO-8601 UTC timestamp set once and kept verbatim.
6. Pinned items always come before unpinned ones.
7. Reordering inside a platform filter only moves items of that platform;
   items hidden by the filter keep their positions.
8. Importing merges by id: an imported item replaces a local item with the same id,
   then everything is sorted pinned first, newest first.

## Backups

` + "`export_items`" + ` returns the full collection pretty-printed, the same content
as the ` + "`info-filter-backup-<YYYY-MM-DD>.json`" + ` file written by the CLI.
`
