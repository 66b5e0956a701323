package dynamodb

import (
	"errors"
	"fmt"

	pkgerrors "ideagraph/pkg/errors"

	"github.com/aws/smithy-go"
)

// translateError classifies DynamoDB API failures. Throttling and missing
// tables surface as upstream errors carrying the AWS error code.
func translateError(err error, operation string) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}

	switch ae.ErrorCode() {
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return pkgerrors.NewUpstreamError("dynamodb", err).WithCode(ae.ErrorCode())
	case "ResourceNotFoundException":
		return pkgerrors.NewUpstreamError("dynamodb", err).WithCode(ae.ErrorCode()).
			WithDetails(map[string]interface{}{"operation": operation})
	default:
		return fmt.Errorf("failed to %s: %s: %w", operation, ae.ErrorCode(), err)
	}
}
