package entrez

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Unknown is the sentinel for categorical fields absent from a docsum. It is
// deliberately distinct from the empty string so "field missing" and "field
// present but empty" stay distinguishable downstream.
const Unknown = "unknown"

// PrimaryRecord is the typed projection of one NCBI Assembly DocumentSummary.
// Missing numeric fields are nil; missing categorical fields carry the
// Unknown sentinel. Records are immutable once parsed.
type PrimaryRecord struct {
	UID       string
	Accession string

	AssemblyName       string
	Organism           string
	SpeciesName        string
	SpeciesTaxID       string
	AssemblyType       string
	AssemblyStatus     string
	AssemblyStatusSort string
	Coverage           *float64
	ReleaseLevel       string
	ReleaseType        string
	SeqReleaseDate     string
	Submitter          string
	BioSample          string
	BioProject         string

	FTPGenBank        string
	FTPRefSeq         string
	FTPAssemblyReport string
	FTPStatsReport    string
	SynonymGenBank    string
	SynonymRefSeq     string

	AssemblyLevel        string
	TaxonomyCheckStatus  string
	RepresentativeStatus string
	RefSeqCategory       string

	LastMajorReleaseAccession   string
	ChainID                     string
	RsUID                       string
	GbUID                       string
	PrimaryUID                  string
	PartialGenomeRepresentation string
	Properties                  []string
	BuscoTotalCount             *int64

	ContigCount     *int64
	ContigL50       *int64
	ContigN50       *int64
	ScaffoldCount   *int64
	ScaffoldL50     *int64
	ScaffoldN50     *int64
	RepliconCount   *int64
	ChromosomeCount *int64
	TotalLength     *int64
	UngappedLength  *int64

	Retrieved time.Time
}

type documentSummary struct {
	ID                          string `xml:"Id"`
	AssemblyAccession           string `xml:"AssemblyAccession"`
	AssemblyName                string `xml:"AssemblyName"`
	Organism                    string `xml:"Organism"`
	SpeciesName                 string `xml:"SpeciesName"`
	SpeciesTaxid                string `xml:"SpeciesTaxid"`
	AssemblyType                string `xml:"AssemblyType"`
	AssemblyStatus              string `xml:"AssemblyStatus"`
	AssemblyStatusSort          string `xml:"AssemblyStatusSort"`
	Coverage                    string `xml:"Coverage"`
	ReleaseLevel                string `xml:"ReleaseLevel"`
	ReleaseType                 string `xml:"ReleaseType"`
	SeqReleaseDate              string `xml:"SeqReleaseDate"`
	SubmitterOrganization       string `xml:"SubmitterOrganization"`
	BioSampleAccn               string `xml:"BioSampleAccn"`
	FtpPathGenBank              string `xml:"FtpPath_GenBank"`
	FtpPathRefSeq               string `xml:"FtpPath_RefSeq"`
	FtpPathAssemblyRpt          string `xml:"FtpPath_Assembly_rpt"`
	FtpPathStatsRpt             string `xml:"FtpPath_Stats_rpt"`
	RefSeqCategory              string `xml:"RefSeq_category"`
	LastMajorReleaseAccession   string `xml:"LastMajorReleaseAccession"`
	ChainID                     string `xml:"ChainId"`
	RsUID                       string `xml:"RsUid"`
	GbUID                       string `xml:"GbUid"`
	Primary                     string `xml:"Primary"`
	PartialGenomeRepresentation string `xml:"PartialGenomeRepresentation"`

	Synonym struct {
		Genbank string `xml:"Genbank"`
		RefSeq  string `xml:"RefSeq"`
	} `xml:"Synonym"`

	GBBioProjects struct {
		Bioproj []struct {
			BioprojectAccn string `xml:"BioprojectAccn"`
		} `xml:"Bioproj"`
	} `xml:"GB_BioProjects"`

	Busco struct {
		TotalCount string `xml:"TotalCount"`
	} `xml:"Busco"`

	PropertyList struct {
		Values []string `xml:"string"`
	} `xml:"PropertyList"`

	// Meta arrives as escaped or CDATA-wrapped inner XML; it is decoded in a
	// second pass.
	Meta struct {
		Inner string `xml:",innerxml"`
	} `xml:"Meta"`
}

type metaContent struct {
	AssemblyLevel        string `xml:"assembly-level"`
	TaxonomyCheckStatus  string `xml:"taxonomy-check-status"`
	RepresentativeStatus string `xml:"representative-status"`
	Stats                struct {
		Stat []struct {
			Category    string `xml:"category,attr"`
			SequenceTag string `xml:"sequence_tag,attr"`
			Value       string `xml:",chardata"`
		} `xml:"Stat"`
	} `xml:"Stats"`
}

// ParseSummary turns one raw DocumentSummary document into zero or one
// PrimaryRecord. A document that does not decode at all returns an error for
// the caller to record as a parse failure; a decodable document with no
// assembly accession yields (nil, nil) and is dropped. Individual missing or
// malformed fields never fail the document.
func ParseSummary(doc []byte, retrieved time.Time) (*PrimaryRecord, error) {
	var ds documentSummary
	if err := xml.Unmarshal(doc, &ds); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ds.AssemblyAccession) == "" {
		return nil, nil
	}

	rec := &PrimaryRecord{
		UID:       strings.TrimSpace(ds.ID),
		Accession: strings.TrimSpace(ds.AssemblyAccession),

		AssemblyName:       ds.AssemblyName,
		Organism:           ds.Organism,
		SpeciesName:        ds.SpeciesName,
		SpeciesTaxID:       ds.SpeciesTaxid,
		AssemblyType:       orUnknown(ds.AssemblyType),
		AssemblyStatus:     orUnknown(ds.AssemblyStatus),
		AssemblyStatusSort: ds.AssemblyStatusSort,
		Coverage:           parseFloat(ds.Coverage),
		ReleaseLevel:       orUnknown(ds.ReleaseLevel),
		ReleaseType:        orUnknown(ds.ReleaseType),
		SeqReleaseDate:     ds.SeqReleaseDate,
		Submitter:          ds.SubmitterOrganization,
		BioSample:          ds.BioSampleAccn,

		FTPGenBank:        ds.FtpPathGenBank,
		FTPRefSeq:         ds.FtpPathRefSeq,
		FTPAssemblyReport: ds.FtpPathAssemblyRpt,
		FTPStatsReport:    ds.FtpPathStatsRpt,
		SynonymGenBank:    ds.Synonym.Genbank,
		SynonymRefSeq:     ds.Synonym.RefSeq,

		RefSeqCategory: orUnknown(ds.RefSeqCategory),

		LastMajorReleaseAccession:   ds.LastMajorReleaseAccession,
		ChainID:                     ds.ChainID,
		RsUID:                       ds.RsUID,
		GbUID:                       ds.GbUID,
		PrimaryUID:                  ds.Primary,
		PartialGenomeRepresentation: orUnknown(ds.PartialGenomeRepresentation),
		Properties:                  ds.PropertyList.Values,
		BuscoTotalCount:             parseInt(ds.Busco.TotalCount),

		Retrieved: retrieved,
	}

	if len(ds.GBBioProjects.Bioproj) > 0 {
		rec.BioProject = ds.GBBioProjects.Bioproj[0].BioprojectAccn
	}

	meta := decodeMeta(ds.Meta.Inner)
	rec.AssemblyLevel = orUnknown(meta.AssemblyLevel)
	rec.TaxonomyCheckStatus = orUnknown(meta.TaxonomyCheckStatus)
	rec.RepresentativeStatus = orUnknown(meta.RepresentativeStatus)
	applyStats(rec, meta)

	return rec, nil
}

// decodeMeta parses the Meta element's inner XML. NCBI wraps it in CDATA;
// malformed meta degrades to empty values rather than failing the document.
func decodeMeta(inner string) metaContent {
	raw := strings.TrimSpace(inner)
	raw = strings.TrimPrefix(raw, "<![CDATA[")
	raw = strings.TrimSuffix(raw, "]]>")
	if strings.HasPrefix(raw, "&lt;") {
		raw = xmlEntities.Replace(raw)
	}

	var meta metaContent
	if raw == "" {
		return meta
	}
	_ = xml.Unmarshal([]byte("<Meta>"+raw+"</Meta>"), &meta)
	return meta
}

// applyStats maps the per-category Meta stats onto the record's fixed stat
// fields. Stats are reported once per sequence tag; the genome-wide "all"
// tag wins over partitioned tags like "unplaced".
func applyStats(rec *PrimaryRecord, meta metaContent) {
	targets := map[string]**int64{
		"contig_count":     &rec.ContigCount,
		"contig_l50":       &rec.ContigL50,
		"contig_n50":       &rec.ContigN50,
		"scaffold_count":   &rec.ScaffoldCount,
		"scaffold_l50":     &rec.ScaffoldL50,
		"scaffold_n50":     &rec.ScaffoldN50,
		"replicon_count":   &rec.RepliconCount,
		"chromosome_count": &rec.ChromosomeCount,
		"total_length":     &rec.TotalLength,
		"ungapped_length":  &rec.UngappedLength,
	}
	for _, stat := range meta.Stats.Stat {
		target, ok := targets[stat.Category]
		if !ok {
			continue
		}
		if *target != nil && !strings.EqualFold(stat.SequenceTag, "all") {
			continue
		}
		if v := parseInt(stat.Value); v != nil {
			*target = v
		}
	}
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

var accessionPattern = regexp.MustCompile(`<AssemblyAccession[^>]*>([^<]+)</AssemblyAccession>`)

// AccessionHint scans a raw document for its accession without a full parse,
// so parse failures can still be attributed to an item in the failure log.
func AccessionHint(doc []byte) string {
	if m := accessionPattern.FindSubmatch(doc); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return Unknown
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
