package httpapi

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liminaltech/zk-sca/guestabi"
	"github.com/liminaltech/zk-sca/internal/config"
	"github.com/liminaltech/zk-sca/internal/obslog"
	"github.com/liminaltech/zk-sca/internal/obsmetrics"
	"github.com/liminaltech/zk-sca/prover"
	"github.com/liminaltech/zk-sca/verifier"
	"github.com/liminaltech/zk-sca/zkvm"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

type handlers struct {
	cfg config.Config
}

// proveRequest is the POST /v1/prove body. ArchiveBase64 is the gzipped
// USTAR tarball to analyze; PermittedDeps and LicensePolicy carry the
// policy documents verbatim as described in SPEC_FULL.md section 6.
type proveRequest struct {
	ArchiveBase64  string          `json:"archive_base64" binding:"required"`
	ManagerName    string          `json:"manager_name" binding:"required"`
	ManagerVersion string          `json:"manager_version" binding:"required"`
	PermittedDeps  json.RawMessage `json:"permitted_deps" binding:"required"`
	LicensePolicy  json.RawMessage `json:"license_policy"`
	DevMode        *bool           `json:"dev_mode"`
	CycleReport    *bool           `json:"cycle_report"`
}

type proveResponse struct {
	ReceiptBase64 string `json:"receipt_base64"`
}

func (h *handlers) prove(c *gin.Context) {
	var req proveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	receipt, err := h.runProve(req)
	obsmetrics.RecordProve(time.Since(start), err == nil)
	if err != nil {
		obslog.Warn("prove failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	encoded, err := zkvm.EncodeReceiptFile(receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, proveResponse{ReceiptBase64: base64.StdEncoding.EncodeToString(encoded)})
}

func (h *handlers) runProve(req proveRequest) (zkvm.Receipt, error) {
	archiveBytes, err := base64.StdEncoding.DecodeString(req.ArchiveBase64)
	if err != nil {
		return zkvm.Receipt{}, err
	}

	manager, err := guestabi.ParsePackageManager(req.ManagerName)
	if err != nil {
		return zkvm.Receipt{}, err
	}
	managerVersion, err := semver.NewVersion(req.ManagerVersion)
	if err != nil {
		return zkvm.Receipt{}, err
	}
	spec := guestabi.NewPackageManagerSpec(manager, managerVersion)
	bundle := guestabi.NewSourceBundle(archiveBytes, spec)

	var permitted guestabi.PermittedDependencies
	if err := permitted.UnmarshalJSON(req.PermittedDeps); err != nil {
		return zkvm.Receipt{}, err
	}

	p := prover.New().WithBundle(bundle).WithPermittedDeps(permitted)

	if len(req.LicensePolicy) > 0 {
		policy, present, err := guestabi.ParseLicensePolicyJSON(req.LicensePolicy)
		if err != nil {
			return zkvm.Receipt{}, err
		}
		if present {
			p = p.WithLicensePolicy(policy)
		}
	}
	devMode := h.cfg.DevModeDefault
	if req.DevMode != nil {
		devMode = *req.DevMode
	}
	p = p.WithDevMode(devMode)
	cycleReport := h.cfg.CycleReportDefault
	if req.CycleReport != nil {
		cycleReport = *req.CycleReport
	}
	p = p.WithCycleReport(cycleReport)

	return p.Prove()
}

// verifyRequest is the POST /v1/verify body.
type verifyRequest struct {
	ReceiptBase64  string `json:"receipt_base64" binding:"required"`
	ImageIDHex     string `json:"image_id_hex" binding:"required"`
	IncludeJournal bool   `json:"include_journal"`
}

type verifyResponse struct {
	Valid   bool                     `json:"valid"`
	Journal *verifier.DecodedJournal `json:"journal,omitempty"`
}

func (h *handlers) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	resp, err := h.runVerify(req)
	obsmetrics.RecordVerify(time.Since(start), err == nil)
	if err != nil {
		obslog.Warn("verify failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) runVerify(req verifyRequest) (verifyResponse, error) {
	receiptBytes, err := base64.StdEncoding.DecodeString(req.ReceiptBase64)
	if err != nil {
		return verifyResponse{}, err
	}
	receipt, err := zkvm.DecodeReceiptFile(receiptBytes)
	if err != nil {
		return verifyResponse{}, err
	}

	imageIDBytes, err := hex.DecodeString(req.ImageIDHex)
	if err != nil {
		return verifyResponse{}, err
	}
	var imageID zkvm.ImageID
	copy(imageID[:], imageIDBytes)

	if err := verifier.VerifyReceipt(receipt, imageID); err != nil {
		return verifyResponse{}, err
	}

	resp := verifyResponse{Valid: true}
	if req.IncludeJournal {
		decoded, err := verifier.DecodeJournal(receipt.Journal)
		if err != nil {
			return verifyResponse{}, err
		}
		resp.Journal = &decoded
	}
	return resp, nil
}
