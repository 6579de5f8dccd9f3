package fields

var builtins = []Descriptor{
	{ID: TypeText, DisplayName: "Text Input", Category: CategoryBasic, Description: "Single line text input"},
	{ID: TypeEmail, DisplayName: "Email", Category: CategoryBasic, Description: "Email address field"},
	{ID: TypePhone, DisplayName: "Phone", Category: CategoryBasic, Description: "Phone number input"},
	{ID: TypeTextarea, DisplayName: "Text Area", Category: CategoryBasic, Description: "Multi-line text input"},
	{ID: TypeNumber, DisplayName: "Number", Category: CategoryBasic, Description: "Numeric input field"},
	{ID: TypeDate, DisplayName: "Date Picker", Category: CategoryBasic, Description: "Date selection field"},

	{ID: TypeSelect, DisplayName: "Dropdown", Category: CategoryAdvanced, Description: "Single selection dropdown"},
	{ID: TypeRadio, DisplayName: "Radio Group", Category: CategoryAdvanced, Description: "Single choice options"},
	{ID: TypeCheckbox, DisplayName: "Checkbox", Category: CategoryAdvanced, Description: "Multiple selections"},
	{ID: TypeToggle, DisplayName: "Toggle Switch", Category: CategoryAdvanced, Description: "On/off switch"},
	{ID: TypeFile, DisplayName: "File Upload", Category: CategoryAdvanced, Description: "File upload field"},
	{ID: TypeRating, DisplayName: "Rating", Category: CategoryAdvanced, Description: "Star rating field"},

	{ID: TypeHeading1, DisplayName: "Heading 1", Category: CategoryLayout, Description: "Primary heading text"},
	{ID: TypeHeading2, DisplayName: "Heading 2", Category: CategoryLayout, Description: "Secondary heading text"},
	{ID: TypeTextBlock, DisplayName: "Text Block", Category: CategoryLayout, Description: "Paragraph text content"},
	{ID: TypeSeparator, DisplayName: "Separator", Category: CategoryLayout, Description: "Visual divider line"},
	{ID: TypeColumns, DisplayName: "Columns", Category: CategoryLayout, Description: "Multi-column layout"},
	{ID: TypeSection, DisplayName: "Section", Category: CategoryLayout, Description: "Form section container"},
}
