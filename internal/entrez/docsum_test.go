package entrez_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creyno/genomemeta/internal/entrez"
)

const sampleDocSum = `<DocumentSummary uid="15683381">
  <Id>15683381</Id>
  <AssemblyAccession>GCF_023516215.1</AssemblyAccession>
  <AssemblyName>ASM2351621v1</AssemblyName>
  <Organism>Pantoea agglomerans (enterobacteria)</Organism>
  <SpeciesName>Pantoea agglomerans</SpeciesName>
  <SpeciesTaxid>549</SpeciesTaxid>
  <AssemblyType>haploid</AssemblyType>
  <AssemblyStatus>Complete Genome</AssemblyStatus>
  <Coverage>100.0</Coverage>
  <ReleaseLevel>Major</ReleaseLevel>
  <SeqReleaseDate>2022/05/25 00:00</SeqReleaseDate>
  <SubmitterOrganization>Example Institute</SubmitterOrganization>
  <BioSampleAccn>SAMN28012345</BioSampleAccn>
  <Synonym>
    <Genbank>GCA_023516215.1</Genbank>
    <RefSeq>GCF_023516215.1</RefSeq>
  </Synonym>
  <GB_BioProjects>
    <Bioproj>
      <BioprojectAccn>PRJNA834100</BioprojectAccn>
      <BioprojectId>834100</BioprojectId>
    </Bioproj>
  </GB_BioProjects>
  <PropertyList>
    <string>full-genome-representation</string>
    <string>latest</string>
  </PropertyList>
  <Busco>
    <TotalCount>124</TotalCount>
  </Busco>
  <FtpPath_GenBank>ftp://ftp.ncbi.nlm.nih.gov/genomes/all/GCA/023/516/215/GCA_023516215.1_ASM2351621v1</FtpPath_GenBank>
  <Meta><![CDATA[ <Stats> <Stat category="chromosome_count" sequence_tag="all">1</Stat> <Stat category="contig_count" sequence_tag="all">4</Stat> <Stat category="contig_n50" sequence_tag="all">4013971</Stat> <Stat category="total_length" sequence_tag="all">4836045</Stat> <Stat category="total_length" sequence_tag="unplaced">0</Stat> </Stats> <assembly-level>5</assembly-level> <representative-status>na</representative-status> <taxonomy-check-status>OK</taxonomy-check-status> ]]></Meta>
</DocumentSummary>`

func TestParseSummaryMapsFields(t *testing.T) {
	t.Parallel()

	retrieved := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	rec, err := entrez.ParseSummary([]byte(sampleDocSum), retrieved)
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Equal(t, "GCF_023516215.1", rec.Accession)
	require.Equal(t, "15683381", rec.UID)
	require.Equal(t, "Pantoea agglomerans", rec.SpeciesName)
	require.Equal(t, "haploid", rec.AssemblyType)
	require.Equal(t, "Complete Genome", rec.AssemblyStatus)
	require.Equal(t, "GCA_023516215.1", rec.SynonymGenBank)
	require.Equal(t, "PRJNA834100", rec.BioProject)
	require.Equal(t, []string{"full-genome-representation", "latest"}, rec.Properties)
	require.Equal(t, retrieved, rec.Retrieved)

	require.NotNil(t, rec.Coverage)
	require.Equal(t, 100.0, *rec.Coverage)
	require.NotNil(t, rec.BuscoTotalCount)
	require.Equal(t, int64(124), *rec.BuscoTotalCount)
}

func TestParseSummaryDecodesMetaCDATA(t *testing.T) {
	t.Parallel()

	rec, err := entrez.ParseSummary([]byte(sampleDocSum), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Equal(t, "5", rec.AssemblyLevel)
	require.Equal(t, "OK", rec.TaxonomyCheckStatus)
	require.Equal(t, "na", rec.RepresentativeStatus)

	require.NotNil(t, rec.ChromosomeCount)
	require.Equal(t, int64(1), *rec.ChromosomeCount)
	require.NotNil(t, rec.ContigN50)
	require.Equal(t, int64(4013971), *rec.ContigN50)
	require.NotNil(t, rec.TotalLength)
	require.Equal(t, int64(4836045), *rec.TotalLength, `the "all" sequence tag wins over "unplaced"`)
}

func TestParseSummaryMissingFields(t *testing.T) {
	t.Parallel()

	minimal := `<DocumentSummary><AssemblyAccession>GCF_1</AssemblyAccession></DocumentSummary>`
	rec, err := entrez.ParseSummary([]byte(minimal), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Equal(t, entrez.Unknown, rec.AssemblyType, "missing categorical fields carry the unknown sentinel")
	require.Equal(t, entrez.Unknown, rec.AssemblyStatus)
	require.Equal(t, entrez.Unknown, rec.AssemblyLevel)
	require.Equal(t, entrez.Unknown, rec.TaxonomyCheckStatus)
	require.NotEqual(t, "", rec.AssemblyType, "sentinel must be distinct from empty string")

	require.Nil(t, rec.Coverage, "missing numeric fields stay nil")
	require.Nil(t, rec.BuscoTotalCount)
	require.Nil(t, rec.ContigCount)
}

func TestParseSummaryMalformedNumericField(t *testing.T) {
	t.Parallel()

	doc := `<DocumentSummary>
  <AssemblyAccession>GCF_1</AssemblyAccession>
  <Coverage>not-a-number</Coverage>
</DocumentSummary>`
	rec, err := entrez.ParseSummary([]byte(doc), time.Now())
	require.NoError(t, err, "a malformed field must never fail the document")
	require.NotNil(t, rec)
	require.Nil(t, rec.Coverage)
}

func TestParseSummaryUnparseableDocument(t *testing.T) {
	t.Parallel()

	rec, err := entrez.ParseSummary([]byte("<DocumentSummary><oops"), time.Now())
	require.Error(t, err)
	require.Nil(t, rec)
}

func TestParseSummaryDropsMissingAccession(t *testing.T) {
	t.Parallel()

	rec, err := entrez.ParseSummary([]byte("<DocumentSummary><Id>5</Id></DocumentSummary>"), time.Now())
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestAccessionHint(t *testing.T) {
	t.Parallel()

	require.Equal(t, "GCF_023516215.1", entrez.AccessionHint([]byte(sampleDocSum)))
	require.Equal(t, entrez.Unknown, entrez.AccessionHint([]byte("<DocumentSummary><oops")))
}
