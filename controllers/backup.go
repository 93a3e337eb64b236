package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"go-phonestore/services"
	"go-phonestore/utils"
)

const maxBackupBytes = 64 << 20

// BackupController exports and restores collections (Admin only)
type BackupController struct {
	Backups *services.BackupService
}

// NewBackupController creates a new BackupController
func NewBackupController(backups *services.BackupService) *BackupController {
	return &BackupController{Backups: backups}
}

// Export downloads the collections named in ?collections=a,b, all when empty
func (bc *BackupController) Export(w http.ResponseWriter, r *http.Request) {
	var cols []string
	for _, c := range strings.Split(r.URL.Query().Get("collections"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	backup, err := bc.Backups.Export(ctx, cols)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	name := fmt.Sprintf("backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	utils.RespondJSON(w, http.StatusOK, backup)
}

// Import restores a backup. Options come from ?preserveIds= and ?clear=.
func (bc *BackupController) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	var backup services.Backup
	if err := json.NewDecoder(r.Body).Decode(&backup); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid backup file")
		return
	}
	opts := services.ImportOptions{}
	if v := queryBool(r, "preserveIds"); v != nil {
		opts.PreserveIDs = *v
	}
	if v := queryBool(r, "clear"); v != nil {
		opts.Clear = *v
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	res, err := bc.Backups.Import(ctx, backup, opts)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

// DeleteCollection removes every document of a collection
func (bc *BackupController) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	n, err := bc.Backups.DeleteCollection(ctx, mux.Vars(r)["collection"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
