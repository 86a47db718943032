package format

// Block-level classes.
const (
	ClassCallout     = "hl-callout"
	ClassHR          = "hl-hr"
	ClassFootnoteDef = "hl-footnote-def"
	ClassQuote       = "hl-quote"
	ClassTask        = "hl-task"
	ClassList        = "hl-list"
	ClassTable       = "hl-table"
	ClassCodeBlock   = "hl-codeblock"
	ClassCodeFence   = "hl-codeblock hl-code-fence"
	ClassMathBlock   = "hl-math-block"
	ClassFrontmatter = "hl-frontmatter"
	ClassComment     = "hl-comment"
)

// Inline classes.
const (
	ClassCode       = "hl-code"
	ClassEmbed      = "hl-embed"
	ClassLink       = "hl-link"
	ClassBold       = "hl-bold"
	ClassItalic     = "hl-italic"
	ClassBoldItalic = "hl-bold hl-italic"
	ClassStrike     = "hl-strike"
	ClassMark       = "hl-mark"
	ClassMathInline = "hl-math-inline"
	ClassFootnote   = "hl-footnote"
	ClassTag        = "hl-tag"
	ClassBlockID    = "hl-block-id"
)

// Token and preview classes.
const (
	ClassTokenHidden  = "md-token md-token-hidden"
	ClassTokenVisible = "md-token md-token-visible"
	ClassImageWrap    = "md-inline-image-wrap"
	ClassImage        = "md-inline-image"
)

var headingClasses = [...]string{"hl-h1", "hl-h2", "hl-h3", "hl-h4", "hl-h5", "hl-h6"}

// HeadingClass returns the class for an ATX heading of the given level (1-6).
func HeadingClass(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(headingClasses) {
		level = len(headingClasses)
	}
	return headingClasses[level-1]
}
