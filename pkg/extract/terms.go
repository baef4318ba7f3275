package extract

// elementTerms maps "Element Set:Element" pairs of the intermediate documents
// to vocabulary terms.
var elementTerms = map[string]string{
	"EAD Archive:Description of Subordinate Components":   "ead:dsc",
	"EAD Archive:Descriptive Identification : Heading":    "ead:unitDIdHead",
	"EAD Archive:Descriptive Identification : Note":       "ead:unitDIdNote",
	"EAD Archive:Appraisal Information":                   "ead:unitAppraisal",
	"EAD Archive:Arrangement":                             "ead:unitArrangement",
	"EAD Archive:Biography or History":                    "ead:unitBiogHist",
	"EAD Archive:Index":                                   "ead:unitIndex",
	"EAD Archive:Level":                                   "ead:unitLevel",
	"EAD Archive:Note":                                    "ead:unitNote",
	"EAD Archive:Other Descriptive Data":                  "ead:unitOdd",
	"EAD Archive:Processing Information":                  "ead:unitProcessInfo",
	"EAD Archive:Scope and Content":                       "ead:unitScopeContent",
	"EAD Archive:Heading":                                 "ead:unitHead",
	"EAD Archive:Table Head":                              "ead:unitTHead",
	"Item Type Metadata:Edition Statement":                "ead:headerEditionStmt",
	"Item Type Metadata:Publication Statement":            "ead:headerPublicationStmt",
	"Item Type Metadata:Note statement":                   "ead:headerNoteStmt",
	"Item Type Metadata:Profile description : Creation":   "ead:headerProfileDescCreation",
	"Item Type Metadata:Profile description : Descriptive Rules": "ead:headerProfileDescDescRules",
	"Item Type Metadata:Profile description : Language Usage":    "ead:headerProfileDescLangUsage",
	"Item Type Metadata:Revision Description : Change":           "ead:headerRevisionDescChange",
	"Item Type Metadata:Revision Description : List":             "ead:headerRevisionDescList",
	"Item Type Metadata:Front matter : Title page":               "ead:frontmatterTitlePage",
	"Item Type Metadata:Front matter : Title page : Block Quote": "ead:frontmatterTitlePageBlockQuote",
	"Item Type Metadata:Front matter : Title page : Chronology list": "ead:frontmatterTitlePageChronList",
	"Item Type Metadata:Front matter : Title page : List":            "ead:frontmatterTitlePageList",
	"Item Type Metadata:Front matter : Title page : Note":            "ead:frontmatterTitlePageNote",
	"Item Type Metadata:Front matter : Title page : Paragraph":       "ead:frontmatterTitlePageP",
	"Item Type Metadata:Front matter : Title page : Table":           "ead:frontmatterTitlePageTable",
	"Item Type Metadata:Front matter : Division":                     "ead:frontmatterDiv",
}

// ItemTypeClasses maps item type names to resource classes.
var ItemTypeClasses = map[string]string{
	"Archival Finding Aid": "ead:ArchivalFindingAid",
	"Archival Description": "ead:ArchivalDescription",
	"Component":            "ead:Component",
	"Digital Object":       "ead:DigitalObject",
}
