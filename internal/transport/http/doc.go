// Package http implements the HTTP handlers of the sharkclean service. The
// handlers stay thin: they decode and validate requests, call a service and
// render the result. Every failure goes through errors.ErrorHandler so clients
// always receive RFC 7807 problem details.
//
// # Endpoints
//
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	POST   /api/v1/time/classify   classify raw time values
//	POST   /api/v1/clean           clean an uploaded workbook, stream the result
//	POST   /api/v1/jobs            queue a cleaning job over a raw dataset
//	GET    /api/v1/jobs[/{id}]     list or inspect jobs
//	DELETE /api/v1/jobs/{id}       cancel a job
//	GET    /api/v1/datasets        list raw datasets
//	GET    /api/v1/profile         profile a raw dataset
//	GET    /api/v1/stats           data directory and runtime statistics
//	POST   /api/v1/client-log      log lines from the status page
//	GET    /                       status page
//
// # Handler Structure
//
// Handlers depend on small interfaces rather than concrete services:
//
//	func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
//	    var req api.ClassifyRequest
//	    if err := h.validator.DecodeJSON(r, &req); err != nil {
//	        h.errors.HandleError(w, r, err)
//	        return
//	    }
//	    categories, counts, err := h.classifier.Classify(r.Context(), req.Values)
//	    ...
//	    render.JSON(w, r, api.ClassifyResponse{Categories: categories, Counts: counts})
//	}
package http
