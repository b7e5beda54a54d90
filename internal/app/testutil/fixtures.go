package testutil

// Transcripts used across package tests.
const (
	CompanyTranscript   = "We raised a $5M seed round for Crux, a climate-tech company based in SF"
	NoCompanyTranscript = "Here is my morning routine: I wake up at six and drink a glass of water"
	TechTranscript      = "Today I show how Go channels let goroutines communicate without locks"
)

// Provider replies shaped like the four summary contracts.
const (
	CompanySummaryJSON = `{
  "type": "companies",
  "summaries": [
    {"company_name": "Crux", "location": "San Francisco", "industry": "Clean Energy", "funding": "Seed - $5M", "notes": "Climate-tech startup that closed a seed round."}
  ],
  "tags": ["climate", "startup", "funding"],
  "companies": ["Crux"]
}`

	CompanySummaryMissingOptionalJSON = `{
  "type": "companies",
  "summaries": [
    {"company_name": "Crux", "funding": "Seed - $5M", "notes": "Climate-tech startup that closed a seed round."}
  ],
  "tags": ["climate"],
  "companies": ["Crux"]
}`

	EmptyCompanySummaryJSON = `{"type": "companies", "summaries": [], "tags": [], "companies": []}`

	TechnologySummaryJSON = `{
  "type": "technology",
  "title": "Go channels in one minute",
  "summary": "Topic: Goroutine communication\nTech: Go channels\nInsight: Channels replace shared memory with message passing\nTakeaway: Prefer channels over mutexes for pipelines",
  "tags": ["go", "concurrency"],
  "summaries": [],
  "companies": []
}`

	GeneralSummaryJSON = `{
  "type": "general",
  "title": "A calm morning routine",
  "summary": "The creator wakes up at six. They drink water before coffee.",
  "tags": ["routine", "health"],
  "summaries": [],
  "companies": []
}`

	TipsSummaryJSON = `{
  "type": "tips",
  "title": "Three packing tips",
  "summary": "Roll your clothes to save space. Keep liquids in one pouch. Wear the heaviest shoes on the plane.",
  "tags": ["travel", "packing"],
  "summaries": [],
  "companies": []
}`
)
