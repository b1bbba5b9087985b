package shareasale

// Action is a report type exposed by the affiliate API. The string value is the
// wire name sent as the "action" query parameter and signed into every request.
type Action string

const (
	ActionTraffic           Action = "traffic"
	ActionActivity          Action = "activity"
	ActionActivitySummary   Action = "activitySummary"
	ActionMerchantDataFeeds Action = "merchantDataFeeds"
	ActionInvalidLinks      Action = "invalidLinks"
	ActionMerchantSearch    Action = "merchantSearch"
)

// FieldType is the semantic type of an input parameter or output column.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldInteger  FieldType = "integer"
	FieldCurrency FieldType = "currency"
	FieldPercent  FieldType = "percent"
	FieldDate     FieldType = "date"
	FieldEnum     FieldType = "enum"
)

type InputField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Values   []string  `json:"values,omitempty"`
}

type OutputField struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema describes one action: the parameters it accepts and the columns it
// returns. Output columns resolve to a Caster once, when the catalog is built.
type Schema struct {
	Action  Action        `json:"action"`
	Inputs  []InputField  `json:"inputs"`
	Outputs []OutputField `json:"outputs"`

	casters map[string]Caster
}

// Caster returns the casting rule for a normalized column name, or nil when the
// column is text or unknown to the schema.
func (s *Schema) Caster(column string) Caster {
	if s == nil {
		return nil
	}
	return s.casters[column]
}

// Typed reports whether the action declares any output columns.
func (s *Schema) Typed() bool {
	return s != nil && len(s.Outputs) > 0
}

func newSchema(action Action, inputs []InputField, outputs []OutputField) *Schema {
	s := &Schema{
		Action:  action,
		Inputs:  inputs,
		Outputs: outputs,
		casters: make(map[string]Caster, len(outputs)),
	}
	for _, out := range outputs {
		if c := casterFor(out.Type); c != nil {
			s.casters[out.Name] = c
		}
	}
	return s
}

var sortDirValues = []string{string(SortAsc), string(SortDesc)}

var actionOrder = []Action{
	ActionTraffic,
	ActionActivity,
	ActionActivitySummary,
	ActionMerchantDataFeeds,
	ActionInvalidLinks,
	ActionMerchantSearch,
}

var catalog = map[Action]*Schema{
	ActionTraffic: newSchema(ActionTraffic,
		[]InputField{
			{Name: "dateStart", Type: FieldDate, Required: true},
			{Name: "dateEnd", Type: FieldDate},
			{Name: "merchantId", Type: FieldInteger},
			{Name: "lockDate", Type: FieldDate},
			{Name: "paidDate", Type: FieldDate},
			{Name: "sortCol", Type: FieldEnum, Values: trafficSortColValues()},
			{Name: "sortDir", Type: FieldEnum, Values: sortDirValues},
		},
		[]OutputField{
			{Name: "merchantId", Type: FieldInteger},
			{Name: "organization", Type: FieldText},
			{Name: "website", Type: FieldText},
			{Name: "uniqueHits", Type: FieldInteger},
			{Name: "commissions", Type: FieldCurrency},
			{Name: "netSales", Type: FieldCurrency},
			{Name: "numberOfVoids", Type: FieldInteger},
			{Name: "numberOfSales", Type: FieldInteger},
			{Name: "conversion", Type: FieldPercent},
			{Name: "epc", Type: FieldCurrency},
		},
	),
	ActionActivity: newSchema(ActionActivity,
		[]InputField{
			{Name: "dateStart", Type: FieldDate, Required: true},
			{Name: "dateEnd", Type: FieldDate},
		},
		nil,
	),
	ActionActivitySummary: newSchema(ActionActivitySummary,
		[]InputField{
			{Name: "filterSpan", Type: FieldText},
		},
		nil,
	),
	ActionMerchantDataFeeds: newSchema(ActionMerchantDataFeeds, nil, nil),
	ActionInvalidLinks:      newSchema(ActionInvalidLinks, nil, nil),
	ActionMerchantSearch: newSchema(ActionMerchantSearch,
		[]InputField{
			{Name: "category", Type: FieldText},
			{Name: "sortCol", Type: FieldText},
			{Name: "sortDir", Type: FieldEnum, Values: sortDirValues},
		},
		nil,
	),
}

// Lookup returns the schema registered for an action.
func Lookup(a Action) (*Schema, bool) {
	s, ok := catalog[a]
	return s, ok
}

// Actions lists every supported action in a stable order.
func Actions() []Action {
	return append([]Action(nil), actionOrder...)
}

// ParseAction maps a wire name back to its Action.
func ParseAction(name string) (Action, bool) {
	a := Action(name)
	_, ok := catalog[a]
	return a, ok
}
