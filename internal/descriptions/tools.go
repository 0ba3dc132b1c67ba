package descriptions

import "sort"

// Tool names
const (
	ToolExtractFile      = "payreq_extract_file"
	ToolExtractDirectory = "payreq_extract_directory"
	ToolExport           = "payreq_export"
	ToolServerInfo       = "payreq_server_info"
)

// Long-form tool descriptions with examples

const (
	ExtractFileDescription = `Extract the payment request fields from a single PDF.

**When to use:** You have one payment request (طلب صرف) and need its request number, payee code, date, beneficiary, amount and description.

**How it works:** Page one is read from the PDF text layer. Scanned documents with little or no text are rasterized and OCR'd (Arabic + English). The fields are then matched by label, for example "Transfer payable To" / "لصالح" for the beneficiary and "Description" / "البيان" for the description.

**Examples:**
• "Extract the fields from requests/SU-0150109.pdf"
• "What amount and beneficiary does 2025/april/req-17.pdf show?"

**Result:** The record as text plus JSON. Documents without a request number are reported as not matching, which is not an error.

**Best practices:** Paths may be absolute or relative to the configured directory; paths outside it are refused.`

	ExtractDirectoryDescription = `Extract payment request fields from every PDF under a directory.

**When to use:** Reviewing a whole batch of payment requests before exporting them, or checking which files did not match.

**How it works:** Every *.pdf under the directory is processed in path order. Each file is accepted, rejected (no payment request found) or failed (unreadable). One bad file never stops the batch.

**Examples:**
• "List the payment requests in the configured folder"
• "Which files in april/ could not be read?"

**Result:** One line per accepted record followed by a run summary with per-file outcomes.

**Best practices:** Omit the directory to use the configured one. Use payreq_export to write the spreadsheet once the results look right.`

	ExportDescription = `Extract every payment request under a directory and write the results as XLSX and CSV.

**When to use:** Producing the consolidated sheet for the finance office.

**How it works:** Runs the same batch as payreq_extract_directory, then writes payment_requests_YYYYMMDD_HHMM.xlsx (right-to-left sheet "طلبات الصرف") and a UTF-8 CSV with a byte-order mark so spreadsheet applications open the Arabic text correctly.

**Columns:** File_Name, SU_Number, PayTO, Date, Beneficiary, Amount, Description.

**Examples:**
• "Export the payment requests in the configured folder"
• "Export april/ into exports/april"

**Best practices:** When nothing matches no files are written. The output directory defaults to the configured export directory.`

	ServerInfoDescription = `Show the server configuration, the PDFs available for extraction and the tools offered.

**When to use:** Start here to learn the configured directory, the acceptance policy in effect and whether OCR is available for scanned documents.

**Result:** Server name and version, document directory, export directory, extraction settings, the first PDFs found, and a short guide to the other tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFile:      ExtractFileDescription,
	ToolExtractDirectory: ExtractDirectoryDescription,
	ToolExport:           ExportDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
