// Package modelfile manages the files attached to a model's records:
// declarative per-field upload rules, request-level size limits, and
// cleanup of replaced files.
//
// A service is declared once per model and reused across requests:
//
//	svc, err := modelfile.New(store, modelfile.Config{
//	    Model: "product",
//	    Fields: map[string]modelfile.FieldDef{
//	        "cover":   {MaxSize: "5MB", MaxCount: 1, AllowedCategories: []string{"image"}},
//	        "gallery": {MaxSize: "10MB", MaxCount: 8, AllowedCategories: []string{"image", "video"}},
//	        "manual":  {MaxCount: 2, AllowedTypes: []string{"application/pdf"}},
//	    },
//	})
//
// In an HTTP handler, process every uploaded field in one call. Files
// land under the resolved folder template (default "{model}/{id}"),
// suffixed with the field name:
//
//	results, err := svc.ProcessRequest(r, storage.FolderContext{"id": productID})
//	if err != nil {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	    return
//	}
//	record := modelfile.FileRecord(results) // map[field][]url, ready to persist
//
// UploadMiddleware caps multipart request bodies according to the field
// definitions before any handler work happens. On record update,
// CleanupReplacedFiles removes files whose URLs were replaced; on
// record delete, DeleteFiles removes everything the record referenced.
// Both are best effort: a storage failure is logged and reported but
// never blocks the caller.
package modelfile
