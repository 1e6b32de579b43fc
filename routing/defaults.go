package routing

// Queue identifiers for the fixed default-assignment table.
const (
	QueueSales           = "sales-team"
	QueueDocumentation   = "documentation-team"
	QueueLogistics       = "logistics-team"
	QueueCustomerService = "customer-service"
)

// DefaultQueue receives everything no other mechanism could route.
const DefaultQueue = QueueCustomerService

// defaultAssignees is the compile-time default-assignment table keyed by
// request type, used when no active rule matches.
var defaultAssignees = map[RequestType][]string{
	RequestTypeQuote:                 {QueueSales},
	RequestTypeCertificateOfAnalysis: {QueueDocumentation},
	RequestTypeFreight:               {QueueLogistics},
	RequestTypeClaim:                 {QueueCustomerService},
	RequestTypeOther:                 {QueueCustomerService},
}

// DefaultAssignees returns a copy of the default assignee list for a request
// type. Unknown types fall through to the default queue.
func DefaultAssignees(requestType RequestType) []string {
	if assignees, ok := defaultAssignees[requestType]; ok {
		out := make([]string, len(assignees))
		copy(out, assignees)
		return out
	}
	return []string{DefaultQueue}
}

// DefaultValidAssignees is the built-in advisor whitelist: the four queues.
// Deployments override it through configuration, never by editing the merger.
func DefaultValidAssignees() []string {
	return []string{QueueSales, QueueDocumentation, QueueLogistics, QueueCustomerService}
}
