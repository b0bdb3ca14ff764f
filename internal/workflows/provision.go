package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RegionProvisionInput is the input for the region provisioning workflow.
type RegionProvisionInput struct {
	VaultID      string
	DeviceID     string
	CenterLat    float64
	CenterLon    float64
	RadiusMeters float64
}

// Device acks usually arrive within seconds; phones in Doze mode can take
// much longer, so the workflow polls patiently before giving up.
const (
	ackPollInterval = 15 * time.Second
	ackMaxPolls     = 8
)

// RegionProvisionWorkflow pushes a circular region to a device's native
// monitor and waits for the device to acknowledge registration. If the
// device never acks, the region command is withdrawn and the vault is
// flagged for continuous polling (saga compensation).
func RegionProvisionWorkflow(ctx workflow.Context, input RegionProvisionInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting region provisioning", "vaultID", input.VaultID, "deviceID", input.DeviceID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Push the region command to the device channel
	err := workflow.ExecuteActivity(ctx, "PushRegion", input).Get(ctx, nil)
	if err != nil {
		return err
	}

	// Step 2: Poll for the device's ack
	acked := false
	for i := 0; i < ackMaxPolls; i++ {
		if err := workflow.Sleep(ctx, ackPollInterval); err != nil {
			return err
		}
		var ok bool
		if err := workflow.ExecuteActivity(ctx, "CheckAck", input.DeviceID, input.VaultID).Get(ctx, &ok); err != nil {
			logger.Warn("ack check failed", "error", err)
			continue
		}
		if ok {
			acked = true
			break
		}
	}

	// Step 3: Compensate when the device never registers the region
	if !acked {
		logger.Warn("device never acked region, falling back to polling",
			"vaultID", input.VaultID, "deviceID", input.DeviceID)
		_ = workflow.ExecuteActivity(ctx, "WithdrawRegion", input.DeviceID, input.VaultID).Get(ctx, nil)
		_ = workflow.ExecuteActivity(ctx, "MarkPollingFallback", input.DeviceID, input.VaultID).Get(ctx, nil)
		return temporal.NewApplicationError("region provisioning not acknowledged", "NoDeviceAck")
	}

	logger.Info("Region provisioned", "vaultID", input.VaultID)
	return nil
}
