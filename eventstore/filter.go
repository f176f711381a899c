package eventstore

import (
	"slices"
	"strings"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter selects the events of a "dynamic event stream".
//
// Items are combined with OR. Inside an item the event types are combined with OR,
// and the item's predicates are combined with AND or OR depending on how the item was built.
// The optional occurred-at bounds apply to all items.
type Filter struct {
	items         []FilterItem
	occurredFrom  time.Time
	occurredUntil time.Time
}

// Items returns the filter items.
func (f Filter) Items() []FilterItem {
	return f.items
}

// OccurredFrom returns the inclusive lower bound for OccurredAt, zero when unbounded.
func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

// OccurredUntil returns the inclusive upper bound for OccurredAt, zero when unbounded.
func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

// IsEmpty reports whether the filter has no usable item.
func (f Filter) IsEmpty() bool {
	return len(f.items) == 0
}

// String renders the filter in a stable, human-readable form, used as a log and metric label.
func (f Filter) String() string {
	parts := make([]string, 0, len(f.items))

	for _, item := range f.items {
		var sb strings.Builder
		sb.WriteString("(")
		sb.WriteString(strings.Join(item.eventTypes, "|"))

		joiner := " OR "
		if item.allPredicatesMustMatch {
			joiner = " AND "
		}

		predicates := make([]string, 0, len(item.predicates))
		for _, p := range item.predicates {
			predicates = append(predicates, p.key+"="+p.val)
		}

		if len(predicates) > 0 {
			sb.WriteString(" WHERE ")
			sb.WriteString(strings.Join(predicates, joiner))
		}

		sb.WriteString(")")
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, " OR ")
}

/***** FilterItem *****/

// FilterItem is one OR-branch of a Filter.
type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

// EventTypes returns the sorted, deduplicated event types.
func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

// Predicates returns the sorted, deduplicated payload predicates.
func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

// AllPredicatesMustMatch reports whether predicates are combined with AND.
func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

/***** FilterPredicate *****/

// FilterPredicate matches a top-level string property of the JSON payload.
type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P constructs a FilterPredicate.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

// Key returns the payload property name.
func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

// Val returns the expected property value.
func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder is the entry point for building a Filter.
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder
}

// EmptyFilterItemBuilder builds a FilterItem that has nothing yet.
type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds one or multiple event types, empty ones are dropped.
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates
}

// FilterItemBuilderLackingPredicates builds a FilterItem with event types but without predicates.
type FilterItemBuilderLackingPredicates interface {
	// AndAnyPredicateOf adds predicates of which at least one must match.
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// AndAllPredicatesOf adds predicates that must all match.
	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	CompletedFilterItemBuilder
}

// CompletedFilterItemBuilder can start another item, add time bounds or finish the Filter.
type CompletedFilterItemBuilder interface {
	// OrMatching closes the current item and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// OccurredFrom sets the inclusive lower bound for OccurredAt.
	OccurredFrom(from time.Time) CompletedFilterItemBuilder

	// OccurredUntil sets the inclusive upper bound for OccurredAt.
	OccurredUntil(until time.Time) CompletedFilterItemBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder.
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	allEventTypes := append([]FilterEventTypeString{eventType}, eventTypes...)
	allEventTypes = slices.DeleteFunc(allEventTypes, func(e FilterEventTypeString) bool { return e == "" })
	allEventTypes = append(slices.Clone(fb.currentFilterItem.eventTypes), allEventTypes...)
	slices.Sort(allEventTypes)

	fb.currentFilterItem.eventTypes = slices.Clip(slices.Compact(allEventTypes))

	return fb
}

func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.predicates = fb.sanitizePredicates(predicate, predicates...)

	return fb
}

func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.allPredicatesMustMatch = true
	fb.currentFilterItem.predicates = fb.sanitizePredicates(predicate, predicates...)

	return fb
}

func (fb filterBuilder) sanitizePredicates(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) []FilterPredicate {

	allPredicates := append([]FilterPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(allPredicates, func(p FilterPredicate) bool {
		return p.key == "" || p.val == ""
	})
	slices.SortFunc(allPredicates, func(a, b FilterPredicate) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}

		return strings.Compare(a.val, b.val)
	})

	return slices.Clip(slices.Compact(allPredicates))
}

func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = fb.closedItems()
	fb.currentFilterItem = FilterItem{}

	return fb
}

func (fb filterBuilder) OccurredFrom(from time.Time) CompletedFilterItemBuilder {
	fb.filter.occurredFrom = from

	return fb
}

func (fb filterBuilder) OccurredUntil(until time.Time) CompletedFilterItemBuilder {
	fb.filter.occurredUntil = until

	return fb
}

func (fb filterBuilder) Finalize() Filter {
	fb.filter.items = fb.closedItems()

	return fb.filter
}

// closedItems appends the current item unless it has no event types.
func (fb filterBuilder) closedItems() []FilterItem {
	items := slices.Clone(fb.filter.items)

	if len(fb.currentFilterItem.eventTypes) > 0 {
		items = append(items, fb.currentFilterItem)
	}

	return items
}
