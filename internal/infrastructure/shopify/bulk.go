package shopify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

// maxBulkLineSize bounds a single JSONL line. Bulk results carry URLs, not
// attachments, so one megabyte leaves ample room for long descriptions.
const maxBulkLineSize = 1 << 20

// ---------------------------------------------------------------------------
// GraphQL plumbing
// ---------------------------------------------------------------------------

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// graphql posts a query document and decodes the data envelope into out.
func (c *Client) graphql(ctx context.Context, query string, out any) error {
	body := map[string]string{"query": query}

	var resp graphqlResponse
	if _, err := c.do(ctx, http.MethodPost, "graphql.json", nil, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %s", integration.ErrPlatformRequestFailed, resp.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
	}
	return nil
}

// bulkOperationState is the wire form of a bulk job. objectCount arrives as
// a JSON string.
type bulkOperationState struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ErrorCode   string `json:"errorCode"`
	ObjectCount string `json:"objectCount"`
	URL         string `json:"url"`
}

func (s *bulkOperationState) toJob() integration.BulkJob {
	count, _ := strconv.ParseInt(s.ObjectCount, 10, 64)
	return integration.BulkJob{
		ID:          s.ID,
		Status:      integration.BulkJobStatus(s.Status),
		ErrorCode:   s.ErrorCode,
		URL:         s.URL,
		ObjectCount: count,
	}
}

// bulkExportQuery extracts the full catalog: every product with its options,
// variants, images and the managed metafields. The named aliases pin the six
// managed keys; the generic connection picks up whatever else lives in the
// managed namespace.
var bulkExportQuery = fmt.Sprintf(`mutation {
  bulkOperationRunQuery(
    query: """
    {
      products {
        edges {
          node {
            id
            handle
            title
            bodyHtml
            vendor
            productType
            status
            tags
            options { name values }
            warranty: metafield(namespace: %[1]q, key: %[2]q) { value }
            stock: metafield(namespace: %[1]q, key: %[3]q) { value }
            nextDelivery: metafield(namespace: %[1]q, key: %[4]q) { value }
            priceB2b: metafield(namespace: %[1]q, key: %[5]q) { value }
            priceB2bPromo: metafield(namespace: %[1]q, key: %[6]q) { value }
            accessories: metafield(namespace: %[1]q, key: %[7]q) { value }
            metafields(namespace: %[1]q) {
              edges { node { id namespace key value type } }
            }
            variants {
              edges {
                node {
                  id
                  title
                  price
                  sku
                  position
                  inventoryQuantity
                  weight
                  selectedOptions { name value }
                  inventoryItem { id tracked }
                }
              }
            }
            images {
              edges { node { id url } }
            }
          }
        }
      }
    }
    """
  ) {
    bulkOperation { id status }
    userErrors { field message }
  }
}`,
	integration.MetafieldNamespace,
	integration.MetafieldKeyWarranty,
	integration.MetafieldKeyStock,
	integration.MetafieldKeyNextDelivery,
	integration.MetafieldKeyPriceB2B,
	integration.MetafieldKeyPriceB2BPromo,
	integration.MetafieldKeyAccessories,
)

const currentBulkJobQuery = `{
  currentBulkOperation {
    id
    status
    errorCode
    objectCount
    url
  }
}`

// ---------------------------------------------------------------------------
// Export protocol
// ---------------------------------------------------------------------------

// ExportProducts runs the asynchronous bulk protocol end to end: submit the
// job, poll it to a terminal state, download the result file and reassemble
// the catalog from its lines. A failed or timed-out job is a hard error; a
// completed job without a result file means the remote catalog is empty.
func (c *Client) ExportProducts(ctx context.Context) ([]integration.RemoteProduct, error) {
	job, err := c.submitBulkExport(ctx)
	if err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}
	c.logger.Info("Submitted bulk export job", zap.String("job_id", job.ID))

	job, err = c.waitForBulkJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}
	if job.URL == "" {
		c.logger.Info("Bulk export produced no result file, remote catalog is empty",
			zap.String("job_id", job.ID))
		return nil, nil
	}

	products, err := c.downloadBulkResult(ctx, job.URL)
	if err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}

	c.logger.Info("Bulk export complete",
		zap.String("job_id", job.ID),
		zap.Int64("objects", job.ObjectCount),
		zap.Int("products", len(products)))
	return products, nil
}

func (c *Client) submitBulkExport(ctx context.Context) (integration.BulkJob, error) {
	var data struct {
		BulkOperationRunQuery struct {
			BulkOperation bulkOperationState `json:"bulkOperation"`
			UserErrors    []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := c.graphql(ctx, bulkExportQuery, &data); err != nil {
		return integration.BulkJob{}, err
	}
	if errs := data.BulkOperationRunQuery.UserErrors; len(errs) > 0 {
		return integration.BulkJob{}, fmt.Errorf("%w: submit rejected: %s",
			integration.ErrBulkJobFailed, errs[0].Message)
	}
	return data.BulkOperationRunQuery.BulkOperation.toJob(), nil
}

func (c *Client) currentBulkJob(ctx context.Context) (integration.BulkJob, error) {
	var data struct {
		CurrentBulkOperation *bulkOperationState `json:"currentBulkOperation"`
	}
	if err := c.graphql(ctx, currentBulkJobQuery, &data); err != nil {
		return integration.BulkJob{}, err
	}
	if data.CurrentBulkOperation == nil {
		return integration.BulkJob{}, fmt.Errorf("%w: no current bulk operation",
			integration.ErrPlatformInvalidResponse)
	}
	return data.CurrentBulkOperation.toJob(), nil
}

// waitForBulkJob polls the job on a fixed interval until it reaches a
// terminal state or the wall-clock ceiling passes.
func (c *Client) waitForBulkJob(ctx context.Context, jobID string) (integration.BulkJob, error) {
	deadline := time.Now().Add(c.cfg.BulkTimeout)
	for {
		job, err := c.currentBulkJob(ctx)
		if err != nil {
			return integration.BulkJob{}, err
		}
		c.logger.Debug("Polled bulk export job",
			zap.String("job_id", job.ID),
			zap.String("status", string(job.Status)))

		if job.Status.IsTerminal() {
			if job.Status == integration.BulkJobStatusCompleted {
				return job, nil
			}
			return integration.BulkJob{}, fmt.Errorf("%w: job %s ended %s (%s)",
				integration.ErrBulkJobFailed, job.ID, job.Status, job.ErrorCode)
		}
		if time.Now().After(deadline) {
			return integration.BulkJob{}, fmt.Errorf("%w: job %s still %s after %s",
				integration.ErrBulkJobTimeout, jobID, job.Status, c.cfg.BulkTimeout)
		}

		select {
		case <-ctx.Done():
			return integration.BulkJob{}, ctx.Err()
		case <-time.After(c.cfg.BulkPollInterval):
		}
	}
}

// downloadBulkResult streams the JSONL result file. The file lives on
// presigned object storage: no auth header, and the download does not count
// against the API rate budget.
func (c *Client) downloadBulkResult(ctx context.Context, resultURL string) ([]integration.RemoteProduct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bulk result download returned status %d",
			integration.ErrPlatformRequestFailed, resp.StatusCode)
	}
	return c.parseBulkResult(resp.Body)
}

// parseBulkResult reconstructs catalog items from the flat JSONL stream in
// two passes. Pass one partitions lines by the type segment of their global
// ID, bucketing children under their declared parent. Pass two walks the
// root lines in file order and attaches each root's children. Roots are
// de-duplicated by handle, first occurrence wins.
func (c *Client) parseBulkResult(r io.Reader) ([]integration.RemoteProduct, error) {
	var (
		rootRows   []bulkLine
		variants   = make(map[string][]bulkLine)
		images     = make(map[string][]bulkLine)
		metafields = make(map[string][]bulkLine)
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxBulkLineSize)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var row bulkLine
		if err := json.Unmarshal(raw, &row); err != nil {
			c.logger.Warn("Skipping malformed bulk result line", zap.Error(err))
			continue
		}

		switch integration.GIDType(row.ID) {
		case "Product":
			rootRows = append(rootRows, row)
		case "ProductVariant":
			variants[row.ParentID] = append(variants[row.ParentID], row)
		case "ProductImage", "MediaImage":
			images[row.ParentID] = append(images[row.ParentID], row)
		case "Metafield":
			metafields[row.ParentID] = append(metafields[row.ParentID], row)
		default:
			// Other object types in the result file are not an error.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading bulk result: %v",
			integration.ErrPlatformInvalidResponse, err)
	}

	seen := make(map[string]struct{}, len(rootRows))
	products := make([]integration.RemoteProduct, 0, len(rootRows))
	for i := range rootRows {
		root := &rootRows[i]
		if _, dup := seen[root.Handle]; dup {
			c.logger.Debug("Dropping duplicate bulk root line", zap.String("handle", root.Handle))
			continue
		}
		seen[root.Handle] = struct{}{}
		products = append(products, toRemoteProduct(root, variants[root.ID], images[root.ID], metafields[root.ID]))
	}
	return products, nil
}
